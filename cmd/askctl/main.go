// askctl is a small operator CLI for poking the campus orchestrator
// over its HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	userID    string
	topK      int
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "askctl",
	Short:         "Campus orchestrator CLI",
	Long:          "askctl sends questions to a running campus orchestrator and prints the answer with its sources.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the orchestrator a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		payload := map[string]any{"question": question}
		if userID != "" {
			payload["uid"] = userID
		}
		if topK > 0 {
			payload["top_k"] = topK
		}

		var resp struct {
			Reply      string  `json:"reply"`
			PrimaryURL *string `json:"primary_url"`
			BestScore  float32 `json:"best_score"`
			SourceType string  `json:"source_type"`
			Sources    []struct {
				Idx   int     `json:"idx"`
				Title string  `json:"title"`
				URL   string  `json:"url"`
				Score float32 `json:"score"`
			} `json:"sources"`
		}
		if err := post("/v1/answer", payload, &resp); err != nil {
			return err
		}

		fmt.Println(resp.Reply)
		fmt.Printf("\nsource_type=%s best_score=%.3f\n", resp.SourceType, resp.BestScore)
		if resp.PrimaryURL != nil {
			fmt.Printf("primary_url=%s\n", *resp.PrimaryURL)
		}
		for _, s := range resp.Sources {
			fmt.Printf("  [%d] %s (%.3f) %s\n", s.Idx, s.Title, s.Score, s.URL)
		}
		return nil
	},
}

var titleCmd = &cobra.Command{
	Use:   "title [question]",
	Short: "Generate a conversation title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Title string `json:"title"`
		}
		if err := post("/v1/title", map[string]any{"question": strings.Join(args, " ")}, &resp); err != nil {
			return err
		}
		fmt.Println(resp.Title)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check orchestrator readiness",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: timeout}
		resp, err := client.Get(strings.TrimRight(serverURL, "/") + "/readyz")
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		fmt.Printf("%d %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("orchestrator not ready")
		}
		return nil
	},
}

func post(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(strings.TrimRight(serverURL, "/")+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return fmt.Errorf("orchestrator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("ASKCTL_SERVER", "http://localhost:9020"), "orchestrator base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout")
	askCmd.Flags().StringVar(&userID, "uid", "", "student id for schedule questions")
	askCmd.Flags().IntVar(&topK, "top-k", 0, "retrieval candidate override")

	rootCmd.AddCommand(askCmd, titleCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSignCommand() *cobra.Command {
	var secret string
	var payloadPath string
	var eventType string
	var replayURL string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a webhook payload file and optionally replay it against a local receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readPayload(payloadPath)
			if err != nil {
				return err
			}

			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			signature := "sha256=" + hex.EncodeToString(mac.Sum(nil))

			fmt.Fprintf(cmd.OutOrStdout(), "X-Hub-Signature-256: %s\n", signature)

			if replayURL == "" {
				return nil
			}

			req, err := http.NewRequest(http.MethodPost, replayURL, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-GitHub-Event", eventType)
			req.Header.Set("X-GitHub-Delivery", uuid.NewString())
			req.Header.Set("X-Hub-Signature-256", signature)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("replay request failed: %w", err)
			}
			defer resp.Body.Close()

			respBody, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(cmd.OutOrStdout(), "replayed: %s -> %d %s\n", replayURL, resp.StatusCode, string(respBody))
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "webhook secret to sign with")
	cmd.Flags().StringVar(&payloadPath, "payload", "", "path to the JSON payload file (- for stdin)")
	cmd.Flags().StringVar(&eventType, "event", "pull_request", "X-GitHub-Event value to send on replay")
	cmd.Flags().StringVar(&replayURL, "replay-url", "", "if set, POST the signed payload here")
	_ = cmd.MarkFlagRequired("secret")
	_ = cmd.MarkFlagRequired("payload")
	return cmd
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

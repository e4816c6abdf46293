package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		name    string
		variant string
	)

	cmd := &cobra.Command{
		Use:   "watch <room_id>",
		Short: "Attach to a room and stream its events",
		Long: `Connect to a room over websocket and print every event as it arrives.

Lines typed on stdin are sent as chat messages (which double as guesses
during a drawing round). Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchRoom(args[0], variant, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "observer", "Display name to join with")
	cmd.Flags().StringVar(&variant, "variant", "sketch", "Room variant: sketch, duel")

	return cmd
}

func watchRoom(roomID, variant, name string) error {
	wsURL, err := websocketURL(cfg.ServerURL, variant, roomID, name)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	fmt.Fprintf(os.Stderr, "connected to %s (Ctrl+C to exit)\n", roomID)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Inbound events to stdout
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			printEvent(frame)
		}
	}()

	// Stdin lines become chat messages
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			msg := map[string]any{
				"type": "chat",
				"data": map[string]string{"text": text},
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}()

	select {
	case <-sigCh:
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
	}
	return nil
}

func websocketURL(serverURL, variant, roomID, name string) (string, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	}
	parsed.Path = fmt.Sprintf("/ws/%s/%s", variant, roomID)
	q := parsed.Query()
	q.Set("name", name)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func printEvent(frame []byte) {
	if cfg.Output == "json" {
		fmt.Println(string(frame))
		return
	}

	var event struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(frame, &event); err != nil {
		fmt.Println(string(frame))
		return
	}
	ts := time.Now().Format("15:04:05")
	fmt.Printf("[%s] %-20s %s\n", ts, event.Type, string(event.Payload))
}

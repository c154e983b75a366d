// wsclient subscribes to the settlement event feed and prints everything it
// receives. Handy for watching a family dashboard session from a terminal.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

func main() {
	url := flag.String("url", "ws://localhost:8888/api/v1/ws", "event feed endpoint")
	token := flag.String("token", "", "family bearer token")
	flag.Parse()

	header := http.Header{}
	if *token != "" {
		header.Set("Authorization", "Bearer "+*token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, header)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				log.Println("read error:", err)
				return
			}

			var event map[string]any
			if err := json.Unmarshal(p, &event); err != nil {
				log.Printf("Received (raw):\n%s\n", p)
				continue
			}

			pretty, err := json.MarshalIndent(event, "", "  ")
			if err != nil {
				log.Println("json marshal error:", err)
				continue
			}
			log.Printf("Received:\n%s\n", pretty)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case <-done:
	case <-interrupt:
		log.Println("interrupted, closing")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}

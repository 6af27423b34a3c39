package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/rover.go/pkg/bridge/mqtt"
)

var (
	mqttURL = mqtt.Default().BrokerURL
)

func init() {
	if val := os.Getenv("ROVER_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if len(payload) == 0 {
			log.Printf("%s: (cleared)", topic)
			return
		}
		if !strings.HasSuffix(topic, "/reply") {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		doc, err := mqtt.DecodeDocument(payload)
		if err != nil {
			log.Printf("%s: bad reply: %v", topic, err)
			return
		}
		op, _ := doc.Text("op")
		if msg, _ := doc.Text("error"); msg != "" {
			log.Printf("%s: [%s] failed: %s", topic, op, msg)
			return
		}
		log.Printf("%s: [%s] ok", topic, op)
	}))
	<-(chan struct{})(nil)
}

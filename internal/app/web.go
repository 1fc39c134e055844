package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/Shrn-25/ORIENTATION-MPU/internal/config"
	"github.com/Shrn-25/ORIENTATION-MPU/internal/orientation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// poseHub keeps the latest pose and fans new poses out to websocket
// subscribers. A slow subscriber loses updates instead of blocking the
// MQTT callback.
type poseHub struct {
	mu       sync.RWMutex
	lastPose orientation.Pose
	havePose bool
	subs     map[chan orientation.Pose]struct{}
}

func newPoseHub() *poseHub {
	return &poseHub{subs: make(map[chan orientation.Pose]struct{})}
}

func (h *poseHub) publish(p orientation.Pose) {
	h.mu.Lock()
	h.lastPose = p
	h.havePose = true
	for ch := range h.subs {
		select {
		case ch <- p:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *poseHub) latest() (orientation.Pose, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastPose, h.havePose
}

func (h *poseHub) subscribe() chan orientation.Pose {
	ch := make(chan orientation.Pose, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *poseHub) unsubscribe(ch chan orientation.Pose) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// RunWeb subscribes to the pose topic and serves the latest estimate as
// JSON plus a websocket push stream.
func RunWeb() error {
	cfg := config.Get()
	hub := newPoseHub()

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to pose topic and feed the hub on each message
	token := client.Subscribe(cfg.TopicPose, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p orientation.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("web: MQTT payload unmarshal error: %v", err)
			return
		}
		hub.publish(p)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicPose)

	// 3) JSON API endpoint: latest pose
	http.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		pose, ok := hub.latest()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(pose); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) Websocket stream: one JSON pose per estimator tick
	http.HandleFunc("/ws/orientation", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ch := hub.subscribe()
		defer hub.unsubscribe(ch)

		for pose := range ch {
			if err := conn.WriteJSON(pose); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	})

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}

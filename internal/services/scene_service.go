package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"deskmates.dev/internal/models"
	"deskmates.dev/internal/scene"
)

// subscriberBuffer is how many frames a slow subscriber may fall behind
// before frames are dropped for it
const subscriberBuffer = 8

// SceneService runs the office simulation and fans frames out to viewers
type SceneService struct {
	mu      sync.RWMutex
	scene   *scene.Scene
	frame   scene.Frame
	encoded []byte

	info     models.SceneInfo
	tickRate int
	log      logrus.FieldLogger

	subMu sync.Mutex
	subs  map[uuid.UUID]chan []byte
}

// NewSceneService creates a new SceneService around sc
func NewSceneService(sc *scene.Scene, tickRate int, assetBase string, log logrus.FieldLogger) *SceneService {
	s := &SceneService{
		scene:    sc,
		tickRate: tickRate,
		log:      log.WithField("component", "scene"),
		subs:     make(map[uuid.UUID]chan []byte),
		info: models.SceneInfo{
			Layout:    sc.Layout(),
			Manifest:  sc.Manifest(),
			Tuning:    sc.Tuning(),
			TickRate:  tickRate,
			AssetBase: assetBase,
		},
	}
	s.frame = sc.Snapshot()
	s.encoded, _ = encodeFrame(&s.frame)
	return s
}

// Run ticks the scene at the configured rate until ctx is done
func (s *SceneService) Run(ctx context.Context) error {
	if s.tickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d", s.tickRate)
	}
	ticker := time.NewTicker(time.Second / time.Duration(s.tickRate))
	defer ticker.Stop()

	s.log.WithField("tick_rate_hz", s.tickRate).Info("scene started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scene stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Step()
		}
	}
}

// Step advances the scene one tick and publishes the frame
func (s *SceneService) Step() scene.Frame {
	s.mu.Lock()
	f := s.scene.Tick()
	b, err := encodeFrame(&f)
	s.frame = f
	if err == nil {
		s.encoded = b
	}
	s.mu.Unlock()

	for _, t := range f.Transitions {
		entry := s.log.WithFields(logrus.Fields{
			"tick":  f.Tick,
			"agent": t.Agent,
			"from":  t.From,
			"to":    t.To,
		})
		if t.Seat != nil {
			entry = entry.WithField("seat", t.Seat.String())
		}
		entry.Debug("agent state changed")
	}

	if err != nil {
		s.log.WithError(err).Error("encoding frame")
		return f
	}
	s.broadcast(b)
	return f
}

// Current returns the most recent frame
func (s *SceneService) Current() scene.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// Info returns the static scene description
func (s *SceneService) Info() models.SceneInfo {
	return s.info
}

// Subscribe registers a viewer. The channel receives every encoded frame,
// starting with the current one, until cancel is called. Frames are dropped
// for viewers that fall behind.
func (s *SceneService) Subscribe() (<-chan []byte, func()) {
	id := uuid.New()
	ch := make(chan []byte, subscriberBuffer)

	s.mu.RLock()
	if s.encoded != nil {
		ch <- s.encoded
	}
	s.mu.RUnlock()

	s.subMu.Lock()
	s.subs[id] = ch
	s.subMu.Unlock()
	s.log.WithField("subscriber", id).Debug("viewer joined")

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			close(ch)
			s.subMu.Unlock()
			s.log.WithField("subscriber", id).Debug("viewer left")
		})
	}
	return ch, cancel
}

// Subscribers returns the number of connected viewers
func (s *SceneService) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

func (s *SceneService) broadcast(b []byte) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- b:
		default:
			s.log.WithField("subscriber", id).Trace("dropped frame")
		}
	}
}

func encodeFrame(f *scene.Frame) ([]byte, error) {
	return json.Marshal(models.FrameEnvelope{Type: "frame", Frame: f})
}

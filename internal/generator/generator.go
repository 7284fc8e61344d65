// Package generator produces alert payloads for exercising the processor:
// well-formed alerts drawn from weighted distributions, plus configurable
// shares of malformed payloads and redelivered duplicates.
package generator

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dyel-L/alert-processor/internal/events"
)

// Config controls what the generator emits.
type Config struct {
	Seed             int64  // 0 picks a time-based seed
	SeverityDist     string // e.g. "HIGH:30,MEDIUM:30,LOW:25,CRITICAL:15"
	TypeDist         string // e.g. "SYSTEM:40,NETWORK:30,SECURITY:30"
	Clients          int    // number of distinct client IDs
	InvalidPercent   int    // share of malformed payloads
	DuplicatePercent int    // share of re-sent earlier payloads
}

// DefaultConfig returns the generator defaults.
func DefaultConfig() Config {
	return Config{
		SeverityDist:     "HIGH:30,MEDIUM:30,LOW:25,CRITICAL:15",
		TypeDist:         "SYSTEM:40,NETWORK:30,SECURITY:20,APPLICATION:10",
		Clients:          5,
		InvalidPercent:   5,
		DuplicatePercent: 5,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	sevs, err := ParseDistribution(c.SeverityDist)
	if err != nil {
		return fmt.Errorf("invalid severity-dist: %w", err)
	}
	for _, s := range sevs {
		if !events.Severity(s.value).Valid() {
			return fmt.Errorf("invalid severity-dist: unknown severity %s", s.value)
		}
	}
	if _, err := ParseDistribution(c.TypeDist); err != nil {
		return fmt.Errorf("invalid type-dist: %w", err)
	}
	if c.Clients < 1 {
		return fmt.Errorf("clients must be at least 1")
	}
	if c.InvalidPercent < 0 || c.DuplicatePercent < 0 || c.InvalidPercent+c.DuplicatePercent > 100 {
		return fmt.Errorf("invalid-percent and duplicate-percent must be non-negative and sum to at most 100")
	}
	return nil
}

// Kind is the category of a generated payload.
type Kind string

const (
	KindValid     Kind = "valid"
	KindInvalid   Kind = "invalid"
	KindDuplicate Kind = "duplicate"
)

// Payload is one generated message.
type Payload struct {
	Key   []byte
	Value []byte
	Kind  Kind
}

// wireAlert is the JSON shape the processor consumes.
type wireAlert struct {
	ID        string  `json:"id"`
	ClientID  string  `json:"clientId"`
	AlertType string  `json:"alertType"`
	Message   string  `json:"message"`
	Severity  string  `json:"severity"`
	Source    *string `json:"source"`
	Timestamp string  `json:"timestamp"`
}

var (
	sources  = []string{"api", "db", "cache", "monitor", "queue", "worker"}
	messages = []string{"disk full", "timeout", "connection lost", "cpu above threshold", "login burst", "memory pressure"}
)

// malformed payload templates, each rejected by the decoder.
var malformed = []string{
	`{ invalid json`,
	`{"id":"%s","clientId":"c1","alertType":"SYSTEM","message":"m","severity":"HIGH"}`,
	`{"id":"%s","clientId":"c1","alertType":"SYSTEM","message":"m","severity":"URGENT","timestamp":"2024-01-01T00:00:00"}`,
	`{"id":"%s","clientId":"c1","alertType":"SYSTEM","message":"m","severity":"LOW","timestamp":"yesterday"}`,
	`not json at all`,
}

// maxRemembered bounds how many valid payloads are kept for duplicates.
const maxRemembered = 1000

// Generator produces payloads. It is not safe for concurrent use.
type Generator struct {
	cfg        Config
	rng        *rand.Rand
	severities []weightedValue
	types      []weightedValue
	sent       []Payload
	now        func() time.Time
}

// New creates a generator. cfg must pass Validate.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	severities, _ := ParseDistribution(cfg.SeverityDist)
	types, _ := ParseDistribution(cfg.TypeDist)
	return &Generator{
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(seed)),
		severities: severities,
		types:      types,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Next returns the next payload.
func (g *Generator) Next() Payload {
	roll := g.rng.Intn(100)
	switch {
	case roll < g.cfg.InvalidPercent:
		return g.invalid()
	case roll < g.cfg.InvalidPercent+g.cfg.DuplicatePercent && len(g.sent) > 0:
		p := g.sent[g.rng.Intn(len(g.sent))]
		p.Kind = KindDuplicate
		return p
	default:
		return g.valid()
	}
}

func (g *Generator) valid() Payload {
	alert := wireAlert{
		ID:        uuid.NewString(),
		ClientID:  fmt.Sprintf("client-%d", g.rng.Intn(g.cfg.Clients)+1),
		AlertType: g.selectWeighted(g.types),
		Message:   g.selectFrom(messages),
		Severity:  g.selectWeighted(g.severities),
		Timestamp: g.now().Format(time.RFC3339Nano),
	}
	if g.rng.Intn(4) > 0 {
		src := g.selectFrom(sources)
		alert.Source = &src
	}

	value, err := json.Marshal(alert)
	if err != nil {
		panic(fmt.Sprintf("marshal generated alert: %v", err))
	}
	p := Payload{Key: []byte(alert.ID), Value: value, Kind: KindValid}
	if len(g.sent) == maxRemembered {
		g.sent = g.sent[1:]
	}
	g.sent = append(g.sent, p)
	return p
}

func (g *Generator) invalid() Payload {
	tmpl := malformed[g.rng.Intn(len(malformed))]
	id := uuid.NewString()
	value := tmpl
	if strings.Contains(tmpl, "%s") {
		value = fmt.Sprintf(tmpl, id)
	}
	return Payload{Key: []byte(id), Value: []byte(value), Kind: KindInvalid}
}

// selectWeighted picks a value using cumulative weights.
func (g *Generator) selectWeighted(choices []weightedValue) string {
	r := g.rng.Intn(100)
	cumulative := 0
	for _, c := range choices {
		cumulative += c.weight
		if r < cumulative {
			return c.value
		}
	}
	return choices[len(choices)-1].value
}

func (g *Generator) selectFrom(choices []string) string {
	return choices[g.rng.Intn(len(choices))]
}

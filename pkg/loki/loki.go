// Package loki batches log lines and ships them to the Loki push API.
package loki

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type Logger interface {
	Error(msg string, args ...any)
}

type Config struct {
	// Url of the push endpoint, e.g. https://example-prod.grafana.net/loki/api/v1/push
	Url string `validate:"required,url"`

	// BatchMaxSize is the maximum number of lines sent in one request.
	BatchMaxSize int `validate:"gte=1"`

	// BatchMaxWait is the longest a line waits in the batch before it is sent.
	BatchMaxWait time.Duration `validate:"gte=1"`

	// BufferSize is the capacity of the entry queue. Entries are dropped when it is full.
	BufferSize int `validate:"gte=1"`

	// Labels are attached to the stream of every line.
	Labels map[string]string

	// Optional multi-tenant header.
	TenantKey   string
	TenantValue string

	// Optional basic auth.
	Username string
	Password string
}

func (cfg *Config) setDefaults() {
	if cfg.BatchMaxSize == 0 {
		cfg.BatchMaxSize = 1000
	}
	if cfg.BatchMaxWait == 0 {
		cfg.BatchMaxWait = 5 * time.Second
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 1024
	}
	if cfg.Labels == nil {
		cfg.Labels = map[string]string{}
	}
}

type LogEntry struct {
	Level   string            `json:"level"`
	Message string            `json:"msg"`
	Caller  string            `json:"caller,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type Pusher struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	client  *http.Client
	entries chan LogEntry
	batch   []streamValue
	logger  Logger
	wg      sync.WaitGroup
	dropped int
	mu      sync.Mutex
}

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values []streamValue     `json:"values"`
}

type streamValue [2]string

func New(ctx context.Context, cfg Config, logger Logger) (*Pusher, error) {
	cfg.setDefaults()
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pusher{
		config:  cfg,
		ctx:     ctx,
		cancel:  cancel,
		client:  &http.Client{Timeout: 10 * time.Second},
		entries: make(chan LogEntry, cfg.BufferSize),
		batch:   make([]streamValue, 0, cfg.BatchMaxSize),
		logger:  logger,
	}

	p.wg.Add(1)
	go p.run()
	return p, nil
}

// Push queues an entry without blocking the caller.
func (p *Pusher) Push(e LogEntry) {
	select {
	case p.entries <- e:
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
	}
}

func (p *Pusher) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Stop flushes the pending batch and stops the background sender.
func (p *Pusher) Stop() {
	p.cancel()
	p.wg.Wait()
}

func (p *Pusher) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.BatchMaxWait)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			p.drain()
			p.flush(context.Background())
			return
		case entry := <-p.entries:
			p.append(entry)
			if len(p.batch) >= p.config.BatchMaxSize {
				p.flush(p.ctx)
			}
		case <-ticker.C:
			p.flush(p.ctx)
		}
	}
}

func (p *Pusher) drain() {
	for {
		select {
		case entry := <-p.entries:
			p.append(entry)
		default:
			return
		}
	}
}

func (p *Pusher) append(entry LogEntry) {
	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	p.batch = append(p.batch, streamValue{strconv.FormatInt(time.Now().UnixNano(), 10), string(line)})
}

func (p *Pusher) flush(ctx context.Context) {
	if len(p.batch) == 0 {
		return
	}
	if err := p.send(ctx, p.batch); err != nil {
		p.logger.Error("failed to send logs", "error", err, "lines", len(p.batch))
	}
	p.batch = p.batch[:0]
}

func (p *Pusher) send(ctx context.Context, values []streamValue) error {
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)

	request := pushRequest{Streams: []stream{{Stream: p.config.Labels, Values: values}}}
	if err := json.NewEncoder(gz).Encode(request); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Url, buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	if p.config.TenantKey != "" {
		req.Header.Set(p.config.TenantKey, p.config.TenantValue)
	}
	if p.config.Username != "" && p.config.Password != "" {
		req.SetBasicAuth(p.config.Username, p.config.Password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected response code from Loki: %s, body: %s", resp.Status, string(body))
	}
	return nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
)

// Title is the notification title of an emergency.
const Title = "DARURAT! Warga Butuh Bantuan"

const (
	// DefaultTimeout bounds a single notification request.
	DefaultTimeout = 10 * time.Second
	// maxErrorBody limits how much of an error response is read.
	maxErrorBody = 512
	// notifyType is the Apprise message type of emergencies.
	notifyType = "failure"
)

var (
	// ErrNotEmergency is returned for records that do not describe an emergency.
	ErrNotEmergency = errors.New("record is not an emergency")
	// errEndpointRequired is returned when no Apprise endpoint is configured.
	errEndpointRequired = errors.New("apprise endpoint must be provided")
)

// Notifier dispatches emergency notifications.
type Notifier interface {
	Notify(ctx context.Context, r *alert.Record) error
}

// AppriseNotifier posts notifications to an Apprise API notify endpoint,
// e.g. http://apprise:8000/notify/alerts.
type AppriseNotifier struct {
	// endpoint is the notify URL.
	endpoint string
	// tags selects the Apprise targets, empty for all.
	tags string
	// client sends the requests.
	client *http.Client
}

// payload is the Apprise API request body.
type payload struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Type   string `json:"type"`
	Format string `json:"format"`
	Tag    string `json:"tag,omitempty"`
}

// NewApprise creates a notifier posting to endpoint.
func NewApprise(endpoint, tags string, timeout time.Duration) (*AppriseNotifier, error) {
	if endpoint == "" {
		return nil, errEndpointRequired
	}

	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid apprise endpoint: %w", err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &AppriseNotifier{
		endpoint: endpoint,
		tags:     tags,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Notify sends the notification of an ACTIVE record.
func (n *AppriseNotifier) Notify(ctx context.Context, r *alert.Record) error {
	if r == nil || r.Status != alert.StatusActive {
		return ErrNotEmergency
	}

	data, err := json.Marshal(payload{
		Title:  Title,
		Body:   Body(r),
		Type:   notifyType,
		Format: "text",
		Tag:    n.tags,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	defer resp.Body.Close() //nolint:errcheck // Nothing to do with a close error.

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // Best effort.

		return fmt.Errorf("apprise returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	return nil
}

// Body composes the notification text of an emergency.
func Body(r *alert.Record) string {
	body := "Warga atas nama " + r.ReporterName
	if r.ReporterArea != "" {
		body += " (" + r.ReporterArea + ")"
	}

	body += " membutuhkan bantuan!"

	if r.IncidentType != "" {
		body += " Jenis: " + r.IncidentType + "."
	}

	if r.IncidentNote != "" {
		body += " " + r.IncidentNote
	}

	if link := MapURL(r.Location); link != "" {
		body += "\nLokasi: " + link
	}

	return body
}

// MapURL returns a map link of the location, empty when unknown.
func MapURL(l *alert.Location) string {
	if l == nil {
		return ""
	}

	return "https://www.google.com/maps?q=" +
		strconv.FormatFloat(l.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(l.Longitude, 'f', -1, 64)
}

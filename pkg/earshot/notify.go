package earshot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/earshot/earshot/pkg/logger"
)

// Dispatcher delivers recognition results to users through the wearable's
// push-notification API: POST {endpoint}/{app_id}/notification?uid=&message=
// with a bearer credential. Delivery is best-effort with a bounded timeout;
// every failure is logged and reported as false, never raised.
type Dispatcher struct {
	endpoint string
	appID    string
	apiKey   string
	timeout  time.Duration
	client   *http.Client
	log      Logger
}

type DispatcherConfig struct {
	Endpoint string
	AppID    string
	APIKey   string
	Timeout  time.Duration
	Logger   Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	return &Dispatcher{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		appID:    cfg.AppID,
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
		client:   &http.Client{},
		log:      cfg.Logger,
	}
}

// FormatMessage renders a match into the user-facing notification text with
// confidence-tiered phrasing. The "(maybe)" tier is unreachable under the
// default recognition threshold; it only fires when thresholds are
// reconfigured below 0.5.
func FormatMessage(c MatchCandidate) string {
	title := c.Title
	if title == "" {
		title = "Unknown Song"
	}
	artist := c.Artist
	if artist == "" {
		artist = "Unknown Artist"
	}

	var emoji, certainty string
	switch {
	case c.Confidence > 0.8:
		emoji, certainty = "🎵", ""
	case c.Confidence > 0.5:
		emoji, certainty = "🎶", " (likely)"
	default:
		emoji, certainty = "🎼", " (maybe)"
	}

	return fmt.Sprintf("%s You're listening to: '%s' by %s%s", emoji, title, artist, certainty)
}

// Notify formats and delivers the match to uid. It reports success; any
// timeout or transport failure is logged with the user id and returns false.
func (d *Dispatcher) Notify(ctx context.Context, uid string, candidate MatchCandidate) bool {
	if d.appID == "" || d.apiKey == "" {
		d.log.Warnf("cannot notify user %s: notification credentials not configured", uid)
		return false
	}

	message := FormatMessage(candidate)
	d.log.Infof("sending notification to user %s: %s", uid, message)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("uid", uid)
	q.Set("message", message)
	endpoint := fmt.Sprintf("%s/%s/notification?%s", d.endpoint, d.appID, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		d.log.Errorf("notification request for user %s: %v", uid, err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			d.log.Errorf("user %s: %v", uid, ErrNotificationTimeout)
		} else {
			d.log.Errorf("user %s: %v: %v", uid, ErrNotificationTransport, err)
		}
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.log.Errorf("user %s: %v: status %d", uid, ErrNotificationTransport, resp.StatusCode)
		return false
	}

	d.log.Infof("notification delivered to user %s", uid)
	return true
}

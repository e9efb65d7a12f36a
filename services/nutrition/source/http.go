package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// HTTPSource fetches the rendered report page over an already
// authenticated session. The session cookie comes from the external
// login collaborator; this source never performs authentication itself.
type HTTPSource struct {
	Url           string
	SessionCookie string
	client        *resty.Client
}

func NewHTTPSource(url, sessionCookie string) *HTTPSource {
	return &HTTPSource{
		Url:           url,
		SessionCookie: sessionCookie,
		client:        resty.New(),
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (Render, error) {
	req := s.client.R().SetContext(ctx)
	if s.SessionCookie != "" {
		req.SetHeader("Cookie", s.SessionCookie)
	}

	res, err := req.Get(s.Url)
	if err != nil {
		return Render{}, err
	}
	if res.StatusCode() != 200 {
		return Render{}, fmt.Errorf("report page returned status %d", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return Render{}, err
	}

	slog.DebugContext(ctx, "fetched report page", "url", s.Url, "bytes", len(res.Body()))
	return Render{HTML: doc}, nil
}

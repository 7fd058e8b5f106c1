// Package source obtains input tables from local files or HTTP(S) URLs.
package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/gnadela/immoeliza-analysis/internal/storage"
	"github.com/gnadela/immoeliza-analysis/internal/table"
)

// Options configure the HTTP client.
type Options struct {
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

// DefaultOptions suits downloading a few megabytes of CSV from GitHub.
var DefaultOptions = Options{
	Timeout:    60 * time.Second,
	RetryCount: 3,
	RetryWait:  time.Second,
}

// Fetcher loads tables from a path or a URL.
type Fetcher struct {
	client *resty.Client
	logger *logrus.Logger
}

// NewFetcher creates a fetcher. A nil logger logs JSON to stdout.
func NewFetcher(opts Options, logger *logrus.Logger) *Fetcher {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(5*opts.RetryWait).
		SetHeader("Accept", "text/csv, application/octet-stream, */*").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &Fetcher{client: client, logger: logger}
}

// IsRemote reports whether location is an HTTP(S) URL.
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load reads the table at location, which is either a local path or an HTTP(S) URL.
func (f *Fetcher) Load(ctx context.Context, location, name string) (*table.Table, error) {
	if strings.TrimSpace(location) == "" {
		return nil, &table.StructuralError{Table: name}
	}
	if !IsRemote(location) {
		t, err := storage.ReadTable(location, name)
		if err != nil {
			return nil, err
		}
		f.logLoaded(location, t)
		return t, nil
	}

	resp, err := f.client.R().
		SetContext(ctx).
		Get(location)
	if err != nil {
		f.logger.WithError(err).WithField("url", location).Error("Download failed")
		return nil, fmt.Errorf("failed to download %s: %w", name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to download %s: %s returned %s", name, location, resp.Status())
	}

	body := bytes.NewReader(resp.Body())
	var t *table.Table
	if isWorkbook(location) {
		t, err = storage.ParseXLSX(body, name, "")
	} else {
		t, err = storage.ParseCSV(body, name)
	}
	if err != nil {
		return nil, err
	}
	f.logLoaded(location, t)
	return t, nil
}

func (f *Fetcher) logLoaded(location string, t *table.Table) {
	f.logger.WithFields(logrus.Fields{
		"table":    t.Name,
		"location": location,
		"rows":     t.Len(),
		"columns":  len(t.Header),
	}).Info("Loaded input table")
}

func isWorkbook(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	return ext == ".xlsx" || ext == ".xlsm"
}

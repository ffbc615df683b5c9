package net

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_inknote._tcp"

var ErrNoServer = errors.New("no note server found on the local network")

// Discover browses mDNS for a note server and returns its http URL.
func Discover(ctx context.Context, timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errc := make(chan error, 1)
	go func() {
		errc <- mdns.Query(params)
		close(entries)
	}()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case e, ok := <-entries:
			if !ok {
				if err := <-errc; err != nil {
					return "", fmt.Errorf("mdns lookup: %w", err)
				}
				return "", ErrNoServer
			}
			if url := entryURL(e); url != "" {
				logger.Infof("discovered note server %s (%s)", url, e.Name)
				return url, nil
			}
		}
	}
}

func entryURL(e *mdns.ServiceEntry) string {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", e.AddrV4.String(), e.Port)
}

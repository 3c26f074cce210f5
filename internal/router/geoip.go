package router

import (
	"fmt"
	"net/netip"

	"github.com/oschwald/maxminddb-golang"
)

// GeoReader resolves a client address to an ISO country code. Lookup
// failures degrade to "".
type GeoReader interface {
	Lookup(ip netip.Addr) string
	Close() error
}

type mmdbReader struct {
	db *maxminddb.Reader
}

// OpenGeoDB opens a MaxMind country database.
func OpenGeoDB(path string) (GeoReader, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip open %s: %w", path, err)
	}
	return &mmdbReader{db: db}, nil
}

func (r *mmdbReader) Lookup(ip netip.Addr) string {
	var record struct {
		Country struct {
			ISOCode string `maxminddb:"iso_code"`
		} `maxminddb:"country"`
	}
	if err := r.db.Lookup(ip.AsSlice(), &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

func (r *mmdbReader) Close() error {
	return r.db.Close()
}

package enrich

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoIP 는 MaxMind GeoLite2-City DB 기반 Locator.
type GeoIP struct {
	reader *geoip2.Reader
}

func OpenGeoIP(path string) (*GeoIP, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip open %s: %w", path, err)
	}
	return &GeoIP{reader: r}, nil
}

// Locate 는 ISO 국가 코드, 첫 번째 subdivision, 도시 이름(en)을 돌려준다.
func (g *GeoIP) Locate(ip net.IP) (Location, error) {
	record, err := g.reader.City(ip)
	if err != nil {
		return Location{}, fmt.Errorf("geoip lookup %s: %w", ip, err)
	}
	return locationFromRecord(record), nil
}

func (g *GeoIP) Close() error {
	return g.reader.Close()
}

func locationFromRecord(record *geoip2.City) Location {
	loc := Location{CountryCode: record.Country.IsoCode}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	loc.City = record.City.Names["en"]
	return loc
}

package ipgeo

import (
	"errors"
	"net"

	"github.com/oschwald/maxminddb-golang"
	"github.com/spf13/viper"
)

const defaultMMDBPath = "./country.mmdb"

type mmdbRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// MMDBLocal looks the country up in a local MaxMind database. The database
// path comes from the mmdbPath config key.
func MMDBLocal(ip string) (string, error) {
	path := viper.GetString("mmdbPath")
	if path == "" {
		path = defaultMMDBPath
	}
	db, err := maxminddb.Open(path)
	if err != nil {
		return Unknown, err
	}
	defer func() {
		_ = db.Close()
	}()

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Unknown, errors.New("invalid IP: " + ip)
	}
	var record mmdbRecord
	if err := db.Lookup(parsed, &record); err != nil {
		return Unknown, err
	}
	if record.Country.ISOCode == "" {
		return Unknown, errors.New("no mmdb record for " + ip)
	}
	return record.Country.ISOCode, nil
}

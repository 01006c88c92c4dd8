package ipgeo

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

func IPSB(ip string) (string, error) {
	url := "https://api.ip.sb/geoip/" + ip
	client := &http.Client{
		Timeout: 2 * time.Second,
	}
	req, _ := http.NewRequest("GET", url, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:100.0) Gecko/20100101 Firefox/100.0")
	content, err := client.Do(req)
	if err != nil {
		return Unknown, err
	}
	defer content.Body.Close()
	body, _ := io.ReadAll(content.Body)
	res := gjson.ParseBytes(body)

	code := res.Get("country_code").String()
	if code == "" {
		return Unknown, errors.New("ip.sb returned no country for " + ip)
	}
	return code, nil
}

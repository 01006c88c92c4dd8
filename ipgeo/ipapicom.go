package ipgeo

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

func IPApiCom(ip string) (string, error) {
	url := "http://ip-api.com/json/" + ip + "?fields=status,countryCode"
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

	if res.Get("status").String() != "success" {
		return Unknown, errors.New("ip-api.com lookup failed for " + ip)
	}
	code := res.Get("countryCode").String()
	if code == "" {
		return Unknown, errors.New("ip-api.com returned no country for " + ip)
	}
	return code, nil
}

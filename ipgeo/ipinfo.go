package ipgeo

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
)

func IPInfo(ip string) (string, error) {
	url := "https://ipinfo.io/" + ip
	token := viper.GetString("token.ipinfo")
	if token != "" {
		url += "?token=" + token
	}
	client := &http.Client{
		Timeout: 2 * time.Second,
	}
	req, _ := http.NewRequest("GET", url, nil)
	req.Header.Set("Accept", "application/json")
	content, err := client.Do(req)
	if err != nil {
		return Unknown, err
	}
	defer content.Body.Close()
	body, _ := io.ReadAll(content.Body)
	res := gjson.ParseBytes(body)

	code := res.Get("country").String()
	if code == "" {
		return Unknown, errors.New("ipinfo.io returned no country for " + ip)
	}
	return code, nil
}

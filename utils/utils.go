package utils

import (
	"net/url"
	"strconv"
)

// ExtractHTTPInfo 从http url抽取host、port和path
func ExtractHTTPInfo(rawurl string) (host string, port int, path string, err error) {
	u, e := url.Parse(rawurl)
	if e != nil {
		err = e
		return
	}
	host = u.Hostname()
	port = 80
	if p := u.Port(); p != "" {
		if n, e := strconv.Atoi(p); e == nil {
			port = n
		}
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return
}

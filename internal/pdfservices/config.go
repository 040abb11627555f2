package pdfservices

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Region selects the service's data residency.
type Region string

const (
	RegionUS Region = "US"
	RegionEU Region = "EU"
)

var regionBaseURLs = map[Region]string{
	RegionUS: "https://pdf-services-ue1.adobe.io",
	RegionEU: "https://pdf-services-ew1.adobe.io",
}

const (
	DefaultIMSURL           = "https://ims-na1.adobelogin.com"
	DefaultConnectTimeout   = 10 * time.Second
	DefaultReadWriteTimeout = 10 * time.Second
)

// ParseRegion accepts "US"/"EU" in any case; "" means US.
func ParseRegion(s string) (Region, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "US":
		return RegionUS, nil
	case "EU":
		return RegionEU, nil
	}
	return "", validationError("region", "unsupported region %q", s)
}

type ProxyScheme string

const (
	ProxySchemeHTTP  ProxyScheme = "http"
	ProxySchemeHTTPS ProxyScheme = "https"
)

// ProxyServerConfig routes all traffic through an HTTP(S) proxy. Port 0
// means the scheme's default port.
type ProxyServerConfig struct {
	Host     string      `json:"host" validate:"required,hostname|ip"`
	Scheme   ProxyScheme `json:"scheme" validate:"omitempty,oneof=http https"`
	Port     int         `json:"port" validate:"omitempty,min=1,max=65535"`
	Username string      `json:"username" validate:"required_with=Password"`
	Password string      `json:"password"`
}

// URL returns the proxy URL for http.Transport.Proxy.
func (p ProxyServerConfig) URL() *url.URL {
	scheme := p.Scheme
	if scheme == "" {
		scheme = ProxySchemeHTTP
	}
	port := p.Port
	if port == 0 {
		port = 80
		if scheme == ProxySchemeHTTPS {
			port = 443
		}
	}
	u := &url.URL{Scheme: string(scheme), Host: net.JoinHostPort(p.Host, strconv.Itoa(port))}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u
}

// ClientConfig tunes the HTTP layer. The zero value is valid and targets the
// US region with default timeouts.
type ClientConfig struct {
	Region Region `json:"region" validate:"omitempty,oneof=US EU"`
	// BaseURL and IMSURL override the region's endpoints.
	BaseURL          string             `json:"baseUrl" validate:"omitempty,url"`
	IMSURL           string             `json:"imsUrl" validate:"omitempty,url"`
	ConnectTimeout   time.Duration      `json:"connectTimeout" validate:"gte=0"`
	ReadWriteTimeout time.Duration      `json:"readWriteTimeout" validate:"gte=0"`
	Proxy            *ProxyServerConfig `json:"proxy" validate:"omitempty"`
}

func (c ClientConfig) Validate() error {
	return validateStruct(c)
}

func (c ClientConfig) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	region := c.Region
	if region == "" {
		region = RegionUS
	}
	return regionBaseURLs[region]
}

func (c ClientConfig) imsURL() string {
	if c.IMSURL != "" {
		return strings.TrimSuffix(c.IMSURL, "/")
	}
	return DefaultIMSURL
}

// newHTTPClient builds the transport honoring timeouts and proxy settings.
func (c ClientConfig) newHTTPClient() *http.Client {
	connect := c.ConnectTimeout
	if connect == 0 {
		connect = DefaultConnectTimeout
	}
	readWrite := c.ReadWriteTimeout
	if readWrite == 0 {
		readWrite = DefaultReadWriteTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = connect
	transport.ResponseHeaderTimeout = readWrite
	if c.Proxy != nil {
		transport.Proxy = http.ProxyURL(c.Proxy.URL())
	}
	return &http.Client{Transport: transport}
}

func (c ClientConfig) String() string {
	proxy := "none"
	if c.Proxy != nil {
		proxy = c.Proxy.Host
	}
	return fmt.Sprintf("region=%s baseURL=%s proxy=%s", c.Region, c.baseURL(), proxy)
}

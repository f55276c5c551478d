package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/dmeister/storefront-backend/internal/tracking"
)

// clientIP extracts the caller's address, preferring the proxy headers the
// edge sets over the raw socket peer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-Ip")); realIP != "" {
		return realIP
	}
	if cfIP := strings.TrimSpace(r.Header.Get("CF-Connecting-Ip")); cfIP != "" {
		return cfIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requestMeta(r *http.Request) tracking.RequestMeta {
	return tracking.RequestMeta{
		ClientIP:  clientIP(r),
		UserAgent: r.UserAgent(),
		SourceURL: sourceURL(r),
	}
}

// sourceURL prefers the page the buyer came from; without a Referer the
// request URL itself is used.
func sourceURL(r *http.Request) string {
	if ref := r.Referer(); ref != "" {
		return ref
	}
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SwaggerConfig controls access to the API documentation endpoints.
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool     // gate docs behind JWT auth
	AllowedIPs  []string // IPs or CIDRs, empty allows everyone
}

// SwaggerProtection guards the docs routes. A disabled endpoint answers 404,
// an IP allowlist answers 403 to everyone else, and RequireAuth additionally
// runs the supplied JWT middleware.
func SwaggerProtection(cfg SwaggerConfig, jwtMiddleware gin.HandlerFunc) gin.HandlerFunc {
	// Parse the allowlist once at registration time.
	var allowedNets []*net.IPNet
	var allowedIPs []net.IP
	if len(cfg.AllowedIPs) > 0 {
		for _, ipStr := range cfg.AllowedIPs {
			if strings.Contains(ipStr, "/") {
				_, network, err := net.ParseCIDR(ipStr)
				if err == nil {
					allowedNets = append(allowedNets, network)
				}
			} else {
				ip := net.ParseIP(ipStr)
				if ip != nil {
					allowedIPs = append(allowedIPs, ip)
				}
			}
		}
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "API documentation is not available",
			})
			return
		}

		if len(cfg.AllowedIPs) > 0 {
			clientIP := getClientIP(c)
			if !isIPAllowed(clientIP, allowedIPs, allowedNets) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":   "forbidden",
					"message": "Access to API documentation is restricted",
				})
				return
			}
		}

		if cfg.RequireAuth && jwtMiddleware != nil {
			jwtMiddleware(c)
			if c.IsAborted() {
				return
			}
		}

		c.Next()
	}
}

// getClientIP resolves the caller's address, preferring gin's trusted-proxy
// aware ClientIP over the raw remote address.
func getClientIP(c *gin.Context) net.IP {
	clientIP := c.ClientIP()
	if clientIP != "" {
		ip := net.ParseIP(clientIP)
		if ip != nil {
			return ip
		}
	}

	remoteAddr := c.Request.RemoteAddr
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		// RemoteAddr may arrive without a port
		host = remoteAddr
	}
	return net.ParseIP(host)
}

func isIPAllowed(ip net.IP, allowedIPs []net.IP, allowedNets []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, allowedIP := range allowedIPs {
		if allowedIP.Equal(ip) {
			return true
		}
	}
	for _, network := range allowedNets {
		if network.Contains(ip) {
			return true
		}
	}

	return false
}

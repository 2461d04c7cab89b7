package middleware

import (
	"net"
	"net/http"

	"bullex/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SourceAllowList restricts a route group to the processor's callback
// sources. Entries may be single IPs or CIDRs. An empty list allows all
// (development only). Denied requests get a bare 403; the body is never
// handed to anything behind this middleware.
func SourceAllowList(sources []string) gin.HandlerFunc {
	var nets []*net.IPNet
	var ips []net.IP
	for _, s := range sources {
		if _, n, err := net.ParseCIDR(s); err == nil {
			nets = append(nets, n)
			continue
		}
		if ip := net.ParseIP(s); ip != nil {
			ips = append(ips, ip)
		}
	}
	return func(c *gin.Context) {
		if len(nets) == 0 && len(ips) == 0 {
			c.Next()
			return
		}
		// match the transport peer, never forwarding headers; the processor
		// connects directly and anything else could forge X-Forwarded-For
		client := net.ParseIP(c.RemoteIP())
		if client != nil {
			for _, ip := range ips {
				if ip.Equal(client) {
					c.Next()
					return
				}
			}
			for _, n := range nets {
				if n.Contains(client) {
					c.Next()
					return
				}
			}
		}
		logger.Log.Warn("webhook source rejected",
			zap.String("ip", c.RemoteIP()),
			zap.String("path", c.Request.URL.Path))
		c.AbortWithStatus(http.StatusForbidden)
	}
}

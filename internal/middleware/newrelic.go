package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"tours/internal/log"
)

// NewRelic instruments requests with New Relic. A nil app disables it.
func NewRelic(app *newrelic.Application) gin.HandlerFunc {
	if app == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return nrgin.Middleware(app)
}

// TransactionAttributes tags the current New Relic transaction with the
// correlation id and records handler errors on it. It must run after
// NewRelic and RequestLogger.
func TransactionAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if id := log.CorrelationIDFromContext(c.Request.Context()); id != "" {
			txn.AddAttribute("correlation_id", id)
		}

		c.Next()

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}

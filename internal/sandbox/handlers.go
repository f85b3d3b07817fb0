package sandbox

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex/coin"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNotFound):
		abortMessage(c, http.StatusNotFound, err.Error())
	case errors.Is(err, errForbidden):
		abortMessage(c, http.StatusForbidden, err.Error())
	case errors.Is(err, errInvalid):
		abortMessage(c, http.StatusUnprocessableEntity, err.Error())
	default:
		abortMessage(c, http.StatusInternalServerError, err.Error())
	}
}

func badRequest(c *gin.Context, msg string) {
	abortMessage(c, http.StatusBadRequest, msg)
}

func accountID(c *gin.Context) int64 {
	return c.GetInt64(ctxAccountID)
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func page(c *gin.Context) (offset, limit int, ok bool) {
	if offset, ok = queryInt(c, "offset", 0); !ok {
		badRequest(c, "invalid offset")
		return 0, 0, false
	}
	if limit, ok = queryInt(c, "limit", models.DefaultLimit); !ok || limit == 0 {
		badRequest(c, "invalid limit")
		return 0, 0, false
	}
	return offset, limit, true
}

// pathID parses the :id parameter. Non-numeric ids name nothing, hence 404.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortMessage(c, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

func (s *Server) issueAccessToken(c *gin.Context) {
	secret, ok := bearerToken(c)
	if !ok || subtle.ConstantTimeCompare([]byte(secret), []byte(s.config.APISecret)) != 1 {
		abortMessage(c, http.StatusUnauthorized, "invalid api key")
		return
	}

	token, err := s.issuer.Issue(OwnerID)
	if err != nil {
		writeError(c, err)
		return
	}
	s.tokensIssued.Add(1)
	c.JSON(http.StatusOK, token)
}

func (s *Server) getMe(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Account())
}

func (s *Server) getBalance(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Balance())
}

func (s *Server) getCoins(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Coins())
}

func (s *Server) getCoin(c *gin.Context) {
	cn, err := s.store.Coin(c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cn)
}

func (s *Server) getOrders(c *gin.Context) {
	raw := c.Query("pair")
	if raw == "" {
		badRequest(c, "pair is required")
		return
	}
	pair, err := coin.ParsePair(raw)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	offset, limit, ok := page(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.Orders(accountID(c), pair, offset, limit))
}

func (s *Server) postOrder(c *gin.Context) {
	var req models.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Pair.IsZero() {
		badRequest(c, "pair is required")
		return
	}

	o, err := s.store.CreateOrder(accountID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (s *Server) getMyOrders(c *gin.Context) {
	var pair coin.Pair
	if raw := c.Query("pair"); raw != "" {
		p, err := coin.ParsePair(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		pair = p
	}
	offset, limit, ok := page(c)
	if !ok {
		return
	}
	status := models.OrderStatus(strings.ToUpper(c.Query("status")))
	c.JSON(http.StatusOK, s.store.MyOrders(accountID(c), pair, status, offset, limit))
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	o, err := s.store.Order(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) putOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var upd models.UpdateOrder
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err.Error())
		return
	}
	o, err := s.store.UpdateOrder(accountID(c), id, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) deleteOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteOrder(accountID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) setOrderActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		o, err := s.store.SetOrderActive(accountID(c), id, active)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func (s *Server) postTrade(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.CreateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	t, err := s.store.CreateTrade(accountID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) getTrades(c *gin.Context) {
	var orderID int64
	if raw := c.Query("order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid order_id")
			return
		}
		orderID = id
	}
	offset, limit, ok := page(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.Trades(accountID(c), orderID, offset, limit))
}

func (s *Server) getTrade(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	t, err := s.store.Trade(accountID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func querySet(c *gin.Context, key string, upper bool) map[string]bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	set := map[string]bool{}
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			if upper {
				v = strings.ToUpper(v)
			}
			set[v] = true
		}
	}
	return set
}

func queryTime(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		badRequest(c, "invalid "+key)
		return time.Time{}, false
	}
	return t, true
}

func (s *Server) getInvoices(c *gin.Context) {
	q := invoiceQuery{
		coins:     querySet(c, "coins", false),
		fiat:      querySet(c, "fiat", true),
		countries: querySet(c, "country_code", true),
		langs:     querySet(c, "lang_id", false),
		systems:   querySet(c, "payment_system_id", false),
		statuses:  querySet(c, "status", true),
	}
	var ok bool
	if q.start, ok = queryTime(c, "date_start"); !ok {
		return
	}
	if q.end, ok = queryTime(c, "date_end"); !ok {
		return
	}
	if q.offset, q.limit, ok = page(c); !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.Invoices(q))
}

func (s *Server) postInvoice(c *gin.Context) {
	var req models.CreateInvoice
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	inv, err := s.store.CreateInvoice(req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.Invoices{inv})
}

func (s *Server) getInvoice(c *gin.Context) {
	inv, err := s.store.Invoice(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) getEstimate(c *gin.Context) {
	cn, err := coin.Parse(c.Query("coin"))
	if err != nil {
		writeError(c, invalid("%v", err))
		return
	}
	e := models.Estimate{
		Coin:        cn,
		Fiat:        strings.ToUpper(c.Query("fiat")),
		Amount:      c.Query("amount"),
		CountryCode: strings.ToUpper(c.Query("country_code")),
		LangID:      c.Query("lang_id"),
	}
	if err := e.Validate(); err != nil {
		writeError(c, invalid("%v", err))
		return
	}
	out, err := s.store.Estimate(e)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getPaymentSystem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ps, err := s.store.PaymentSystem(models.PaymentSystemID(id))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ps)
}

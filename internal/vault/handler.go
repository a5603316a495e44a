package vault

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/vault/internal/address"
	"github.com/congo-pay/vault/internal/amount"
	"github.com/congo-pay/vault/internal/ledger"
	"github.com/congo-pay/vault/internal/settlement"
)

const requestKeyHeader = "Idempotency-Key"

// Handler exposes the vault over HTTP.
type Handler struct {
	service  *Service
	platform string
}

// NewHandler constructs a vault handler. platform is the only caller whose
// declared funds are trusted as already moved into custody.
func NewHandler(service *Service, platform string) *Handler {
	return &Handler{service: service, platform: platform}
}

// ExecuteRequest is the body of POST /execute. Funds may only be set by the
// platform, on deposit_native.
type ExecuteRequest struct {
	Msg   json.RawMessage `json:"msg"`
	Funds []Coin          `json:"funds"`
}

// Execute runs a tagged execute message as the authenticated caller.
func (h *Handler) Execute(c *fiber.Ctx) error {
	caller, _ := c.Locals("caller").(string)
	if caller == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req ExecuteRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return toHTTPError(classifyBody(err))
	}
	msg, err := DecodeExecuteMsg(req.Msg)
	if err != nil {
		return toHTTPError(err)
	}
	if err := h.checkFunds(caller, msg, req.Funds); err != nil {
		return toHTTPError(err)
	}
	info := MessageInfo{
		Sender:     caller,
		Funds:      req.Funds,
		RequestKey: strings.TrimSpace(c.Get(requestKeyHeader)),
	}
	res, err := h.service.Execute(c.UserContext(), info, msg)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

// Query answers a tagged query message.
func (h *Handler) Query(c *fiber.Ctx) error {
	q, err := DecodeQueryMsg(c.Body())
	if err != nil {
		return toHTTPError(err)
	}
	out, err := h.service.Query(c.UserContext(), q)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Balance returns one account, or every registered currency's account when
// the currency parameter is absent.
func (h *Handler) Balance(c *fiber.Ctx) error {
	owner := c.Params("owner")
	currency := c.Params("currency")
	if currency == "" {
		accts, err := h.service.AllBalances(c.UserContext(), owner)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"owner": owner, "balances": accts})
	}
	acct, err := h.service.Balance(c.UserContext(), owner, currency)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(acct)
}

// Config returns the administrator, accepted currencies and version.
func (h *Handler) Config(c *fiber.Ctx) error {
	info, err := h.service.Config(c.UserContext())
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(info)
}

func (h *Handler) checkFunds(caller string, msg ExecuteMsg, funds []Coin) error {
	if len(funds) == 0 {
		return nil
	}
	if _, ok := msg.(DepositNative); !ok {
		return ErrUnexpectedFunds
	}
	if h.platform == "" || caller != h.platform {
		return ErrUnattestedFunds
	}
	return nil
}

func classifyBody(err error) error {
	if errors.Is(err, amount.ErrInvalidAmount) {
		return err
	}
	return errors.Join(ErrMalformedMessage, err)
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrUnattestedFunds):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrInsufficientAvailableFunds),
		errors.Is(err, ledger.ErrInsufficientLockedFunds):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, amount.ErrOverflow), errors.Is(err, amount.ErrUnderflow):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrNotInitialized):
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, settlement.ErrRejected):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	case IsRejection(err), errors.Is(err, address.ErrInvalidAddress):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/xsphere-io/cardlegends-client/internal/cards"
)

// CardService is the part of the asset client the API exposes.
type CardService interface {
	Connect(address string)
	Disconnect()
	Account() (string, bool)
	Refresh()
	Mint(ctx context.Context, name string, rarity cards.Rarity, power int64) (*cards.PendingOperation, error)
	ListOwned(ctx context.Context) ([]cards.Asset, error)
	GetByID(ctx context.Context, id uint64) (*cards.Asset, error)
	Operations() []cards.PendingOperation
	PendingCount() int
	Retry(ctx context.Context, txID string) (*cards.PendingOperation, error)
	Dismiss(txID string) error
}

// ChainInfo describes the network the client is bound to.
type ChainInfo struct {
	Network  string
	ChainID  uint64
	Contract string
	// Signer is the wallet account that signs mints. When set, it is the only
	// account that can be connected.
	Signer string
	TxURL  func(txID string) string
}

type Handler struct {
	cards   CardService
	events  *EventLog
	chain   ChainInfo
	version string
}

func NewHandler(svc CardService, events *EventLog, chain ChainInfo, version string) *Handler {
	if events == nil {
		events = NewEventLog(0, chain.TxURL)
	}
	if chain.TxURL == nil {
		chain.TxURL = func(string) string { return "" }
	}
	return &Handler{cards: svc, events: events, chain: chain, version: version}
}

// -------- DTOs for local client API --------

type connectReq struct {
	Address string `json:"address" binding:"required"`
}

type mintReq struct {
	Name   string      `json:"name"`
	Rarity rarityParam `json:"rarity" binding:"required"`
	Power  *int64      `json:"power" binding:"required"`
}

// rarityParam takes the rarity name ("Rare") or its on-chain number, quoted or not.
type rarityParam string

func (r *rarityParam) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = rarityParam(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = rarityParam(n.String())
	return nil
}

type operationView struct {
	cards.PendingOperation
	TxURL string `json:"txUrl,omitempty"`
}

func (h *Handler) operationView(op *cards.PendingOperation) *operationView {
	if op == nil {
		return nil
	}
	return &operationView{PendingOperation: *op, TxURL: h.chain.TxURL(op.TxID)}
}

// -------- handlers --------

func (h *Handler) Health(c *gin.Context) {
	account, connected := h.cards.Account()
	c.JSON(http.StatusOK, gin.H{
		JSONKeyOK:        true,
		JSONKeyVersion:   h.version,
		JSONKeyNetwork:   h.chain.Network,
		JSONKeyChainID:   h.chain.ChainID,
		JSONKeyContract:  h.chain.Contract,
		JSONKeyAccount:   account,
		JSONKeyConnected: connected,
		JSONKeyPending:   h.cards.PendingCount(),
	})
}

func (h *Handler) GetAccount(c *gin.Context) {
	account, connected := h.cards.Account()
	c.JSON(http.StatusOK, gin.H{JSONKeyOK: true, JSONKeyAccount: account, JSONKeyConnected: connected})
}

func (h *Handler) ConnectAccount(c *gin.Context) {
	var req connectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, HTTPErrorInvalidJSONText)
		return
	}
	addr := strings.TrimSpace(req.Address)
	if !common.IsHexAddress(addr) {
		writeBadRequest(c, "invalid account address")
		return
	}
	if h.chain.Signer != "" && common.HexToAddress(addr) != common.HexToAddress(h.chain.Signer) {
		c.JSON(http.StatusForbidden, gin.H{JSONKeyOK: false, JSONKeyError: "account is not held by this wallet"})
		return
	}
	h.cards.Connect(addr)
	account, _ := h.cards.Account()
	c.JSON(http.StatusOK, gin.H{JSONKeyOK: true, JSONKeyAccount: account, JSONKeyConnected: true})
}

func (h *Handler) DisconnectAccount(c *gin.Context) {
	h.cards.Disconnect()
	c.JSON(http.StatusOK, gin.H{JSONKeyOK: true, JSONKeyConnected: false})
}

func (h *Handler) ListCards(c *gin.Context) {
	list, err := h.cards.ListOwned(c.Request.Context())
	if list == nil {
		list = []cards.Asset{}
	}
	if err != nil {
		// stale data still goes out with the error
		writeError(c, err, gin.H{JSONKeyCards: list})
		return
	}
	c.JSON(http.StatusOK, gin.H{JSONKeyOK: true, JSONKeyCards: list})
}

func (h *Handler) RefreshCards(c *gin.Context) {
	h.cards.Refresh()
	h.ListCards(c)
}

func (h *Handler) GetCard(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param(paramID), 10, 64)
	if err != nil {
		writeBadRequest(c, "card id must be a non-negative integer")
		return
	}
	card, err := h.cards.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	if card == nil {
		c.JSON(http.StatusNotFound, gin.H{JSONKeyOK: false, JSONKeyError: HTTPErrorNotFoundText})
		return
	}
	c.JSON(http.StatusOK, gin.H{JSONKeyOK: true, JSONKeyCard: card})
}

func (h *Handler) MintCard(c *gin.Context) {
	var req mintReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, HTTPErrorInvalidJSONText)
		return
	}
	rarity, err := cards.ParseRarity(string(req.Rarity))
	if err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	op, err := h.cards.Mint(c.Request.Context(), req.Name, rarity, *req.Power)
	if err != nil {
		var extra gin.H
		if op != nil {
			extra = gin.H{JSONKeyOperation: h.operationView(op)}
		}
		writeError(c, err, extra)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{JSONKeyOK: true, JSONKeyOperation: h.operationView(op)})
}

func (h *Handler) ListOperations(c *gin.Context) {
	ops := h.cards.Operations()
	views := make([]*operationView, 0, len(ops))
	for i := range ops {
		views = append(views, h.operationView(&ops[i]))
	}
	c.JSON(http.StatusOK, gin.H{JSONKeyOK: true, JSONKeyOperations: views})
}

func (h *Handler) RetryOperation(c *gin.Context) {
	op, err := h.cards.Retry(c.Request.Context(), c.Param(paramTx))
	if err != nil {
		var extra gin.H
		if op != nil {
			extra = gin.H{JSONKeyOperation: h.operationView(op)}
		}
		writeError(c, err, extra)
		return
	}
	c.JSON(http.StatusOK, gin.H{JSONKeyOK: true, JSONKeyOperation: h.operationView(op)})
}

func (h *Handler) DismissOperation(c *gin.Context) {
	if err := h.cards.Dismiss(c.Param(paramTx)); err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{JSONKeyOK: true})
}

func (h *Handler) RecentEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{JSONKeyOK: true, JSONKeyEvents: h.events.Recent()})
}

// Package restapi is the thin HTTP surface spec §6 names as an external
// collaborator: "read-only views of channels..., open-channel requests,
// deposit, withdraw, payment initiation. Each endpoint translates to an
// Action* state-change submitted to the coordinator" (or, for the two
// on-chain operations, open and deposit, a direct chain-proxy call; only
// opens take the coordinator's per-partner open-channel lock). It contributes no design
// decision the reducer doesn't already dictate, so it stays a thin
// marshal/unmarshal layer over *coordinator.Coordinator.
//
// Grounded on orbas1-Synnergy/synnergy-network's use of
// github.com/go-chi/chi/v5 for its own JSON HTTP surface; this is the only
// repo in the retrieved pack that builds a REST API rather than gRPC, so
// its router choice is what this package follows.
package restapi

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raiden-network/raiden-go/coordinator"
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// Server wires chi's router to a Coordinator. It owns no state of its
// own: every handler either reads through Coordinator.View or submits a
// state-change/chain-proxy call and reports the outcome.
type Server struct {
	coordinator *coordinator.Coordinator
	router      chi.Router
}

// NewServer builds the router (spec §6's four REST concerns: channel
// listing, open, deposit/withdraw, payment).
func NewServer(c *coordinator.Coordinator) *Server {
	s := &Server{coordinator: c, router: chi.NewRouter()}

	s.router.Get("/api/v1/channels", s.listChannels)
	s.router.Get("/api/v1/token_networks/{tokenNetwork}/channels", s.listChannelsForTokenNetwork)
	s.router.Post("/api/v1/token_networks/{tokenNetwork}/channels", s.openChannel)
	s.router.Patch("/api/v1/token_networks/{tokenNetwork}/channels/{channelID}", s.patchChannel)
	s.router.Post("/api/v1/payments/{tokenNetwork}/{target}", s.initiatePayment)
	s.router.Handle("/metrics", promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{}))

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// channelView is the JSON projection of a state.Channel (spec §6
// "read-only views of channels").
type channelView struct {
	TokenNetworkAddress string `json:"token_network_address"`
	ChannelIdentifier   uint64 `json:"channel_identifier"`
	PartnerAddress      string `json:"partner_address"`
	OurDeposit          string `json:"our_deposit"`
	PartnerDeposit      string `json:"partner_deposit"`
	SettleTimeout       uint64 `json:"settle_timeout"`
	RevealTimeout       uint64 `json:"reveal_timeout"`
}

func toChannelView(ch *state.Channel) channelView {
	return channelView{
		TokenNetworkAddress: ch.CanonicalIdentifier.TokenNetworkAddress.Hex(),
		ChannelIdentifier:   ch.CanonicalIdentifier.ChannelIdentifier,
		PartnerAddress:      ch.PartnerState.Address.Hex(),
		OurDeposit:          ch.OurState.ContractBalance.String(),
		PartnerDeposit:      ch.PartnerState.ContractBalance.String(),
		SettleTimeout:       uint64(ch.SettleTimeout),
		RevealTimeout:       uint64(ch.RevealTimeout),
	}
}

func (s *Server) listChannels(w http.ResponseWriter, r *http.Request) {
	var out []channelView
	s.coordinator.View(func(cs *state.ChainState) {
		for _, registry := range cs.TokenNetworkRegistries {
			for _, tn := range registry.TokenNetworkAddressesToTokenNetworks {
				for _, ch := range tn.ChannelIdentifiersToChannels {
					out = append(out, toChannelView(ch))
				}
			}
		}
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listChannelsForTokenNetwork(w http.ResponseWriter, r *http.Request) {
	tnAddress := common.HexToAddress(chi.URLParam(r, "tokenNetwork"))
	var out []channelView
	found := false
	s.coordinator.View(func(cs *state.ChainState) {
		tn, ok := cs.TokenNetworkByAddress(tnAddress)
		if !ok {
			return
		}
		found = true
		for _, ch := range tn.ChannelIdentifiersToChannels {
			out = append(out, toChannelView(ch))
		}
	})
	if !found {
		writeError(w, http.StatusNotFound, "unknown token network")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type openChannelRequest struct {
	PartnerAddress string `json:"partner_address"`
	SettleTimeout  uint64 `json:"settle_timeout"`
}

// openChannel submits the on-chain OpenChannel transaction directly
// (spec §6: opening is a caller-initiated chain RPC, not a reducer
// action), serialized against concurrent opens to the same partner by
// Coordinator.ChannelOpenLock.
func (s *Server) openChannel(w http.ResponseWriter, r *http.Request) {
	tnAddress := common.HexToAddress(chi.URLParam(r, "tokenNetwork"))
	var req openChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tn, ok := s.coordinator.TokenNetworkProxy(tnAddress)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown token network")
		return
	}

	partner := common.HexToAddress(req.PartnerAddress)
	unlock := s.coordinator.ChannelOpenLock(tnAddress, partner)
	defer unlock()

	txHash, err := tn.OpenChannel(r.Context(), partner, primitives.BlockNumber(req.SettleTimeout))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"transaction_hash": txHash.Hex()})
}

type patchChannelRequest struct {
	TotalDeposit  *string `json:"total_deposit,omitempty"`
	TotalWithdraw *string `json:"total_withdraw,omitempty"`
}

// patchChannel mirrors the reference client's PATCH-to-mutate channel
// resource: a total_deposit field submits the deposit transaction
// directly (on-chain, caller-initiated); a total_withdraw field submits
// ActionChannelWithdraw, which drives the off-chain withdraw-confirmation
// exchange the reducer owns before any on-chain SetTotalWithdraw call.
func (s *Server) patchChannel(w http.ResponseWriter, r *http.Request) {
	tnAddress := common.HexToAddress(chi.URLParam(r, "tokenNetwork"))
	channelID, err := parseChannelID(chi.URLParam(r, "channelID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req patchChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	canonicalIdentifier := primitives.CanonicalIdentifier{
		TokenNetworkAddress: tnAddress,
		ChannelIdentifier:   channelID,
	}

	switch {
	case req.TotalDeposit != nil:
		tn, ok := s.coordinator.TokenNetworkProxy(tnAddress)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown token network")
			return
		}
		var partner primitives.Address
		found := false
		s.coordinator.View(func(cs *state.ChainState) {
			ch, ok := cs.ChannelByCanonicalIdentifier(canonicalIdentifier)
			if !ok {
				return
			}
			found = true
			partner = ch.PartnerState.Address
		})
		if !found {
			writeError(w, http.StatusNotFound, "unknown channel")
			return
		}
		amount, err := amountFromString(*req.TotalDeposit)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		txHash, err := tn.SetTotalDeposit(r.Context(), canonicalIdentifier, amount, partner)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"transaction_hash": txHash.Hex()})

	case req.TotalWithdraw != nil:
		amount, err := amountFromString(*req.TotalWithdraw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		err = s.coordinator.Apply(r.Context(), &state.ActionChannelWithdraw{
			CanonicalIdentifier: canonicalIdentifier,
			TotalWithdraw:       amount,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "withdraw_initiated"})

	default:
		writeError(w, http.StatusBadRequest, "one of total_deposit or total_withdraw is required")
	}
}

type paymentRequest struct {
	Amount     string  `json:"amount"`
	Identifier *uint64 `json:"identifier,omitempty"`
}

// initiatePayment submits ActionInitInitiator with a locally-generated
// secret (spec §3.6 "secrethash = keccak256(secret)"); full pathfinding
// is out of scope (spec §1 Non-goals) so the direct partner channel on
// this token network is always the single candidate route.
func (s *Server) initiatePayment(w http.ResponseWriter, r *http.Request) {
	tnAddress := common.HexToAddress(chi.URLParam(r, "tokenNetwork"))
	target := common.HexToAddress(chi.URLParam(r, "target"))

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := amountFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ourAddress primitives.Address
	s.coordinator.View(func(cs *state.ChainState) {
		ourAddress = cs.OurAddress
	})

	secret, err := randomSecret()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	identifier := primitives.PaymentIdentifier(0)
	if req.Identifier != nil {
		identifier = primitives.PaymentIdentifier(*req.Identifier)
	} else {
		identifier, err = randomPaymentIdentifier()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	err = s.coordinator.Apply(r.Context(), &state.ActionInitInitiator{
		PaymentIdentifier:   identifier,
		TokenNetworkAddress: tnAddress,
		Amount:              amount,
		Initiator:           ourAddress,
		Target:              target,
		Secret:              secret,
		SecretHash:          primitives.SecretHashFor(secret),
		Routes: []state.Route{{
			Addresses: []primitives.Address{target},
		}},
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"payment_identifier": uint64(identifier),
	})
}

func parseChannelID(raw string) (uint64, error) {
	return strconv.ParseUint(raw, 10, 64)
}

func amountFromString(raw string) (primitives.Amount, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return primitives.Amount{}, fmt.Errorf("restapi: invalid amount %q", raw)
	}
	return primitives.AmountFromBig(v)
}

func randomSecret() (primitives.Secret, error) {
	var secret primitives.Secret
	_, err := rand.Read(secret[:])
	return secret, err
}

func randomPaymentIdentifier() (primitives.PaymentIdentifier, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return primitives.PaymentIdentifier(binary.BigEndian.Uint64(buf[:])), nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

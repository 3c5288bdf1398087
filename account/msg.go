package account

import (
	"encoding/json"

	"github.com/holiman/uint256"
	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Msg is a self-call payload the account knows how to execute. Most
// messages are only accepted when carried inside an executed
// transaction, since their handlers require the account itself as the
// caller.
type Msg interface {
	Path() string
	Validate() error
}

// msgEnvelope is the wire format of a payload addressed to the
// account: a routing path and the message body.
type msgEnvelope struct {
	Path string          `json:"path"`
	Body json.RawMessage `json:"body"`
}

var msgRegistry = map[string]func() Msg{
	"account/setup":            func() Msg { return &SetupMsg{} },
	"account/add_owner":        func() Msg { return &AddOwnerMsg{} },
	"account/remove_owner":     func() Msg { return &RemoveOwnerMsg{} },
	"account/swap_owner":       func() Msg { return &SwapOwnerMsg{} },
	"account/change_threshold": func() Msg { return &ChangeThresholdMsg{} },
	"account/enable_module":    func() Msg { return &EnableModuleMsg{} },
	"account/disable_module":   func() Msg { return &DisableModuleMsg{} },
	"account/set_guard":        func() Msg { return &SetGuardMsg{} },
	"account/set_fallback":     func() Msg { return &SetFallbackMsg{} },
	"account/approve_hash":     func() Msg { return &ApproveHashMsg{} },
	"account/sign_message":     func() Msg { return &SignMessageMsg{} },
}

// EncodeMsg serializes a message into the envelope format the account
// handler accepts as call payload.
func EncodeMsg(m Msg) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(errors.ErrMsg, err.Error())
	}
	return json.Marshal(msgEnvelope{Path: m.Path(), Body: body})
}

// DecodeMsg parses an envelope payload into the registered message
// type and validates it.
func DecodeMsg(raw []byte) (Msg, error) {
	var env msgEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(errors.ErrMsg, err.Error())
	}
	newMsg, ok := msgRegistry[env.Path]
	if !ok {
		return nil, errors.Wrapf(errors.ErrMsg, "unknown path %q", env.Path)
	}
	m := newMsg()
	if err := json.Unmarshal(env.Body, m); err != nil {
		return nil, errors.Wrap(errors.ErrMsg, err.Error())
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

type SetupMsg struct {
	Owners           []custody.Address `json:"owners"`
	Threshold        int64             `json:"threshold"`
	InitTarget       custody.Address   `json:"init_target,omitempty"`
	InitPayload      []byte            `json:"init_payload,omitempty"`
	FallbackHandler  custody.Address   `json:"fallback_handler,omitempty"`
	ObserveOnlyGuard bool              `json:"observe_only_guard,omitempty"`
	FeeToken         custody.Address   `json:"fee_token,omitempty"`
	FeeAmount        *uint256.Int      `json:"fee_amount,omitempty"`
	FeeReceiver      custody.Address   `json:"fee_receiver,omitempty"`
}

func (SetupMsg) Path() string { return "account/setup" }

func (m *SetupMsg) Validate() error {
	if len(m.Owners) == 0 {
		return errors.Wrap(errors.ErrEmpty, "owners")
	}
	for i, o := range m.Owners {
		if err := o.Validate(); err != nil {
			return errors.Wrapf(err, "owner #%d", i)
		}
	}
	if m.Threshold < 1 {
		return errors.Wrap(ErrThreshold, "threshold must be positive")
	}
	return nil
}

type AddOwnerMsg struct {
	Owner     custody.Address `json:"owner"`
	Threshold int64           `json:"threshold"`
}

func (AddOwnerMsg) Path() string { return "account/add_owner" }

func (m *AddOwnerMsg) Validate() error {
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if m.Threshold < 1 {
		return errors.Wrap(ErrThreshold, "threshold must be positive")
	}
	return nil
}

type RemoveOwnerMsg struct {
	Pred      custody.Address `json:"pred"`
	Owner     custody.Address `json:"owner"`
	Threshold int64           `json:"threshold"`
}

func (RemoveOwnerMsg) Path() string { return "account/remove_owner" }

func (m *RemoveOwnerMsg) Validate() error {
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if m.Threshold < 1 {
		return errors.Wrap(ErrThreshold, "threshold must be positive")
	}
	return nil
}

type SwapOwnerMsg struct {
	Pred custody.Address `json:"pred"`
	Old  custody.Address `json:"old"`
	New  custody.Address `json:"new"`
}

func (SwapOwnerMsg) Path() string { return "account/swap_owner" }

func (m *SwapOwnerMsg) Validate() error {
	if err := m.Old.Validate(); err != nil {
		return errors.Wrap(err, "old")
	}
	if err := m.New.Validate(); err != nil {
		return errors.Wrap(err, "new")
	}
	return nil
}

type ChangeThresholdMsg struct {
	Threshold int64 `json:"threshold"`
}

func (ChangeThresholdMsg) Path() string { return "account/change_threshold" }

func (m *ChangeThresholdMsg) Validate() error {
	if m.Threshold < 1 {
		return errors.Wrap(ErrThreshold, "threshold must be positive")
	}
	return nil
}

type EnableModuleMsg struct {
	Module custody.Address `json:"module"`
}

func (EnableModuleMsg) Path() string { return "account/enable_module" }

func (m *EnableModuleMsg) Validate() error {
	return errors.Wrap(m.Module.Validate(), "module")
}

type DisableModuleMsg struct {
	Pred   custody.Address `json:"pred"`
	Module custody.Address `json:"module"`
}

func (DisableModuleMsg) Path() string { return "account/disable_module" }

func (m *DisableModuleMsg) Validate() error {
	return errors.Wrap(m.Module.Validate(), "module")
}

type SetGuardMsg struct {
	// A zero guard address removes the installed guard.
	Guard custody.Address `json:"guard"`
}

func (SetGuardMsg) Path() string { return "account/set_guard" }

func (m *SetGuardMsg) Validate() error { return nil }

type SetFallbackMsg struct {
	// A zero handler address removes the installed fallback.
	Handler custody.Address `json:"handler"`
}

func (SetFallbackMsg) Path() string { return "account/set_fallback" }

func (m *SetFallbackMsg) Validate() error { return nil }

type ApproveHashMsg struct {
	Digest []byte `json:"digest"`
}

func (ApproveHashMsg) Path() string { return "account/approve_hash" }

func (m *ApproveHashMsg) Validate() error {
	if len(m.Digest) == 0 {
		return errors.Wrap(errors.ErrEmpty, "digest")
	}
	return nil
}

type SignMessageMsg struct {
	Preimage []byte `json:"preimage"`
}

func (SignMessageMsg) Path() string { return "account/sign_message" }

func (m *SignMessageMsg) Validate() error {
	if len(m.Preimage) == 0 {
		return errors.Wrap(errors.ErrEmpty, "preimage")
	}
	return nil
}

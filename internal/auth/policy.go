package auth

import (
	"github.com/frahmantamala/expense-reconciliation/internal"
)

// Policy answers ownership and role questions for the service layer, so the
// rules hold no matter which transport invoked the operation.
type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

func (p *Policy) RequireUser(u *User) error {
	if u == nil || u.ID == 0 {
		return internal.NewUnauthorizedError("authentication required", internal.ErrCodeUnauthorizedAccess)
	}
	return nil
}

func (p *Policy) RequireFinance(u *User) error {
	if err := p.RequireUser(u); err != nil {
		return err
	}
	if !u.IsFinance() {
		return internal.ErrFinanceRequired
	}
	return nil
}

func (p *Policy) RequireOwner(u *User, ownerID int64) error {
	if err := p.RequireUser(u); err != nil {
		return err
	}
	if u.ID != ownerID {
		return internal.ErrOwnerRequired
	}
	return nil
}

// CanRead lets owners see their own records and finance see everyone's.
func (p *Policy) CanRead(u *User, ownerID int64) error {
	if err := p.RequireUser(u); err != nil {
		return err
	}
	if u.ID == ownerID || u.IsFinance() {
		return nil
	}
	return internal.ErrUnauthorizedAccess
}

package repo

import (
	"github.com/GlebRadaev/profilebot/internal/kv"
	accountrepo "github.com/GlebRadaev/profilebot/internal/repo/account-repo"
	downloadrepo "github.com/GlebRadaev/profilebot/internal/repo/download-repo"
	ledgerrepo "github.com/GlebRadaev/profilebot/internal/repo/ledger-repo"
	topuprepo "github.com/GlebRadaev/profilebot/internal/repo/topup-repo"
)

type Repositories struct {
	Account  *accountrepo.Repository
	Ledger   *ledgerrepo.Repository
	Topup    *topuprepo.Repository
	Download *downloadrepo.Repository
}

// New builds every repository on top of one store. ledgerCap bounds each
// per-account history list.
func New(store kv.Store, ledgerCap int64) *Repositories {
	return &Repositories{
		Account:  accountrepo.New(store),
		Ledger:   ledgerrepo.New(store, ledgerCap),
		Topup:    topuprepo.New(store),
		Download: downloadrepo.New(store),
	}
}

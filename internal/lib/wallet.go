package lib

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
)

// Wallet is a development account derived from a mnemonic
type Wallet struct {
	Index      int
	Address    common.Address
	PrivateKey string
}

func (w *Wallet) ID() string {
	return w.Address.Hex()
}

// DeriveWallets derives count accounts using the default ethereum derivation path m/44'/60'/0'/0/i
func DeriveWallets(mnemonic string, count int) ([]*Wallet, error) {
	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}

	wallets := make([]*Wallet, 0, count)
	for i := 0; i < count; i++ {
		path := hdwallet.MustParseDerivationPath(fmt.Sprintf("m/44'/60'/0'/0/%d", i))

		account, err := wallet.Derive(path, false)
		if err != nil {
			return nil, err
		}

		privateKey, err := wallet.PrivateKeyHex(account)
		if err != nil {
			return nil, err
		}

		wallets = append(wallets, &Wallet{
			Index:      i,
			Address:    account.Address,
			PrivateKey: privateKey,
		})
	}

	return wallets, nil
}

package crypto

import (
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"
)

func TestGenerateKey(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	if signer.Address() == (common.Address{}) {
		t.Error("generated zero address")
	}
}

func TestFromPrivateKeyHex(t *testing.T) {
	key, _ := eth_crypto.GenerateKey()
	privHex := fmt.Sprintf("%x", eth_crypto.FromECDSA(key))
	expectedAddr := eth_crypto.PubkeyToAddress(key.PublicKey)

	for _, input := range []string{privHex, "0x" + privHex, " " + privHex + "\n"} {
		signer, err := FromPrivateKeyHex(input)
		if err != nil {
			t.Fatalf("failed to load key %q: %v", input, err)
		}
		if signer.Address() != expectedAddr {
			t.Errorf("address = %s, want %s", signer.Address().Hex(), expectedAddr.Hex())
		}
	}
}

func TestFromPrivateKeyHex_Invalid(t *testing.T) {
	for _, input := range []string{"", "YOUR_PRIVATE_KEY", "0x1234"} {
		if _, err := FromPrivateKeyHex(input); err == nil {
			t.Errorf("FromPrivateKeyHex(%q) should fail", input)
		}
	}
}

func TestSignTx(t *testing.T) {
	signer, _ := GenerateKey()
	chainID := big.NewInt(5)
	to := common.HexToAddress("0x0000000000000000000000000000000000000abc")

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    3,
		To:       &to,
		Gas:      500000,
		GasPrice: big.NewInt(1_000_000_000),
		Data:     []byte{0xde, 0xad},
	})

	signed, err := signer.SignTx(tx, chainID)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil {
		t.Fatalf("failed to recover sender: %v", err)
	}
	if sender != signer.Address() {
		t.Errorf("sender = %s, want %s", sender.Hex(), signer.Address().Hex())
	}
	if signed.ChainId().Cmp(chainID) != 0 {
		t.Errorf("chain id = %s, want %s", signed.ChainId(), chainID)
	}

	if _, err := signer.SignTx(tx, nil); err == nil {
		t.Error("expected error for nil chain id")
	}
}

func TestSignerStringHidesKey(t *testing.T) {
	key, _ := eth_crypto.GenerateKey()
	privHex := fmt.Sprintf("%x", eth_crypto.FromECDSA(key))
	signer, _ := FromPrivateKeyHex(privHex)

	s := fmt.Sprintf("%v %s", signer, signer)
	if strings.Contains(s, privHex) {
		t.Error("private key leaked through formatting")
	}
	if !strings.Contains(s, signer.Address().Hex()) {
		t.Errorf("String() = %q, want address", s)
	}
}

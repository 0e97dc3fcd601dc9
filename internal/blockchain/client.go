package blockchain

import (
	"context"
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/3dxteam/usdt_bot/utils"
)

// usdtDecimals is the token precision on BSC.
const usdtDecimals = 18

const sendGasLimit = 100_000

var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// Client talks to a BSC node about the USDT (BEP20) contract. It verifies
// inbound deposits, sends approved withdrawals from the hot wallet, and
// derives the deterministic per-user deposit addresses.
type Client struct {
	eth        *ethclient.Client
	usdt       common.Address
	hotKey     *ecdsa.PrivateKey
	masterSeed []byte
	logger     *utils.Logger
}

func NewClient(rpcURL, usdtContract, hotWalletKey, masterSeed string, logger *utils.Logger) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial BSC node: %w", err)
	}

	if !common.IsHexAddress(usdtContract) {
		return nil, fmt.Errorf("invalid USDT contract address: %s", usdtContract)
	}

	hotKey, err := crypto.HexToECDSA(strings.TrimPrefix(hotWalletKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hot wallet key: %w", err)
	}

	return &Client{
		eth:        eth,
		usdt:       common.HexToAddress(usdtContract),
		hotKey:     hotKey,
		masterSeed: []byte(masterSeed),
		logger:     logger,
	}, nil
}

// ValidateAddress checks the BEP20 wallet address format (0x + 40 hex chars).
func (c *Client) ValidateAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// DepositAddress derives the user's deposit address from the master seed.
// The same seed and user id always yield the same address, and the private
// key is re-derivable server-side for sweeping.
func (c *Client) DepositAddress(userID int64) string {
	var uid [8]byte
	binary.BigEndian.PutUint64(uid[:], uint64(userID))

	keyBytes := crypto.Keccak256(c.masterSeed, uid[:])
	priv, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		// Keccak output is a valid scalar for all practical inputs; retry
		// with a second hash round if it ever is not.
		keyBytes = crypto.Keccak256(keyBytes)
		priv, _ = crypto.ToECDSA(keyBytes)
	}

	return crypto.PubkeyToAddress(priv.PublicKey).Hex()
}

// VerifyTransaction checks that txHash is a mined, successful transaction
// carrying a USDT transfer of at least expectedAmount. Returns (false, nil)
// for an unknown or failed transaction and an error only for node failures.
func (c *Client) VerifyTransaction(ctx context.Context, txHash string, expectedAmount float64) (bool, error) {
	receipt, err := c.eth.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to fetch receipt: %w", err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return false, nil
	}

	expected := amountToWei(expectedAmount)
	for _, lg := range receipt.Logs {
		if lg.Address != c.usdt {
			continue
		}
		if len(lg.Topics) != 3 || lg.Topics[0] != transferTopic {
			continue
		}
		value := new(big.Int).SetBytes(lg.Data)
		if value.Cmp(expected) >= 0 {
			return true, nil
		}
	}

	return false, nil
}

// SendFunds transfers amount USDT from the hot wallet to address and returns
// the transaction hash. An empty hash is never returned without an error.
func (c *Client) SendFunds(ctx context.Context, address string, amount float64) (string, error) {
	if !c.ValidateAddress(address) {
		return "", fmt.Errorf("invalid destination address: %s", address)
	}

	from := crypto.PubkeyToAddress(c.hotKey.PublicKey)

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	chainID, err := c.eth.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get chain id: %w", err)
	}

	data := transferCallData(common.HexToAddress(address), amountToWei(amount))
	tx := types.NewTransaction(nonce, c.usdt, big.NewInt(0), sendGasLimit, gasPrice, data)

	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), c.hotKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	hash := signed.Hash().Hex()
	c.logger.Infof("Sent %.8f USDT to %s: %s", amount, address, hash)
	return hash, nil
}

// transferCallData encodes transfer(address,uint256).
func transferCallData(to common.Address, value *big.Int) []byte {
	selector := crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]

	data := make([]byte, 0, 4+32+32)
	data = append(data, selector...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(value.Bytes(), 32)...)
	return data
}

func amountToWei(amount float64) *big.Int {
	f := new(big.Float).SetFloat64(amount)
	f.Mul(f, big.NewFloat(math.Pow10(usdtDecimals)))

	wei, _ := f.Int(nil)
	return wei
}

package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	// Bot username without @, used for referral deep links.
	BotUsername string `mapstructure:"TELEGRAM_BOT_USERNAME"`
	AdminChatID      int64  `mapstructure:"ADMIN_CHAT_ID"`
	DB_URL           string `mapstructure:"DB_URL"`

	// BEP20 collaborator settings.
	BscRPCURL    string `mapstructure:"BSC_RPC_URL"`
	USDTContract string `mapstructure:"USDT_CONTRACT"`
	HotWalletKey string `mapstructure:"HOT_WALLET_KEY"`
	MasterSeed   string `mapstructure:"MASTER_SEED"`

	// Syriatel Cash channel settings.
	SyriatelDepositNumber string  `mapstructure:"SYRIATEL_DEPOSIT_NUMBER"`
	SYPPerUSDT            float64 `mapstructure:"EXCHANGE_RATE_SYP_PER_USDT"`
}

func LoadConfig(path string) (config Config, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return config, fmt.Errorf("failed to resolve config path: %w", err)
	}

	viper.AddConfigPath(filepath.Dir(absPath))
	viper.SetConfigName(filepath.Base(absPath))
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := viper.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.SYPPerUSDT <= 0 {
		config.SYPPerUSDT = 5000
	}

	return config, nil
}

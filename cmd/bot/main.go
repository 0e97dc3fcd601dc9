package main

import (
	"github.com/3dxteam/usdt_bot/config"
	"github.com/3dxteam/usdt_bot/db"
	"github.com/3dxteam/usdt_bot/internal/blockchain"
	"github.com/3dxteam/usdt_bot/internal/bot"
	"github.com/3dxteam/usdt_bot/internal/repository"
	"github.com/3dxteam/usdt_bot/internal/service"
	"github.com/3dxteam/usdt_bot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	logger := utils.InitLogger()
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		logger.Fatal("Failed to load config: ", err)
	}

	database, err := db.ConnectDb(cfg.DB_URL, logger)
	if err != nil {
		logger.Fatal(err)
	}

	if err := db.Migrate(database, true, logger); err != nil {
		logger.Fatal(err)
	}

	repo := repository.NewRepository(database, logger)

	chain, err := blockchain.NewClient(cfg.BscRPCURL, cfg.USDTContract, cfg.HotWalletKey, cfg.MasterSeed, logger)
	if err != nil {
		logger.Fatal("Failed to create blockchain client: ", err)
	}

	svc := service.NewService(repo, chain, &cfg, logger)

	telegramBot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal("Failed to create bot API: ", err)
	}

	bot.NewBot(telegramBot, svc, repo, logger, &cfg).Start()
}

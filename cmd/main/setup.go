package main

import (
	"time"

	"tsetmc-pusher/src/data_source/tsetmc"
	"tsetmc-pusher/src/interfaces"
	"tsetmc-pusher/src/logger"
	"tsetmc-pusher/src/models"
	"tsetmc-pusher/src/network"
	"tsetmc-pusher/src/utils"
)

// -----------------------------------------------------------------------------

// setupScheduler builds the session calendar from the market config
func setupScheduler(config *models.MConfig, appLogger *logger.Logger) (*utils.MarketScheduler, error) {
	return utils.NewMarketScheduler(config.Market, appLogger.Named("MarketScheduler"))
}

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(config *models.MConfig, appLogger *logger.Logger) interfaces.INetworkManager {
	return network.NewAsyncNetworkManager(config, appLogger.Named("NetworkManager"))
}

// -----------------------------------------------------------------------------

// setupDataSource initializes the exchange source
func setupDataSource(config *models.MConfig, networkManager interfaces.INetworkManager, loc *time.Location, appLogger *logger.Logger) interfaces.IMarketSource {
	appLogger.Info("Initializing data source at %s", config.DataSource.BaseURL)
	return tsetmc.NewTsetmcSource(config, networkManager, loc, appLogger.Named("TsetmcSource"))
}

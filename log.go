package main

import (
	"github.com/ubixnet/ubixd/infrastructure/logger"
)

var log, _ = logger.Get(logger.SubsystemTags.UBXD)

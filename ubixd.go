package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ubixnet/ubixd/infrastructure/config"
	"github.com/ubixnet/ubixd/infrastructure/db/database/ldb"
	"github.com/ubixnet/ubixd/infrastructure/db/dbaccess"
	"github.com/ubixnet/ubixd/infrastructure/logger"
	"github.com/ubixnet/ubixd/maindag"
	"github.com/ubixnet/ubixd/version"
)

// ubixd holds the handles of all running node services.
type ubixd struct {
	cfg            *config.Config
	blockInfoDB    *dbaccess.DatabaseContext
	indexDB        *dbaccess.DatabaseContext
	blockInfoStore *maindag.DBBlockInfoStore
	dagIndex       *maindag.DagIndex
}

// startNode wires the node together, rebuilds the main DAG index from
// persisted block metadata and blocks until an interrupt arrives.
func startNode() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer logger.BackendLog.Close()

	log.Infof("Version %s", version.Version())
	log.Infof("Network %s", cfg.NetParams.Name)

	node, err := newUbixd(cfg)
	if err != nil {
		log.Criticalf("Unable to start ubixd: %+v", err)
		return err
	}
	defer node.stop()

	log.Infof("Main DAG index ready: generation %s, order %d",
		node.dagIndex.Prefix(), node.dagIndex.Order())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	log.Warnf("Ubixd shutting down")
	return nil
}

// newUbixd opens the node's databases and reconstructs the main DAG index.
func newUbixd(cfg *config.Config) (*ubixd, error) {
	if cfg.DropMainDagIndex {
		log.Infof("Destroying the main DAG index store for re-indexing")
		err := ldb.Destroy(cfg.MainDagIndexDBPath())
		if err != nil {
			return nil, err
		}
	}

	blockInfoDB, err := dbaccess.New(cfg.BlockInfoDBPath())
	if err != nil {
		return nil, err
	}

	indexDB, err := dbaccess.New(cfg.MainDagIndexDBPath())
	if err != nil {
		_ = blockInfoDB.Close()
		return nil, err
	}

	blockInfoStore := maindag.NewDBBlockInfoStore(blockInfoDB)
	dagIndex, err := maindag.RebuildIndex(&maindag.Config{
		DatabaseContext: indexDB,
		InfoStore:       blockInfoStore,
		GenesisHash:     cfg.NetParams.GenesisHash,
		Step:            cfg.MainDagIndexStep,
		PagesInMemory:   cfg.MainDagPagesInMemory,
		MaxBlocksInv:    cfg.MaxBlocksInv,
	})
	if err != nil {
		_ = indexDB.Close()
		_ = blockInfoDB.Close()
		return nil, err
	}

	return &ubixd{
		cfg:            cfg,
		blockInfoDB:    blockInfoDB,
		indexDB:        indexDB,
		blockInfoStore: blockInfoStore,
		dagIndex:       dagIndex,
	}, nil
}

// stop releases the node's database handles.
func (node *ubixd) stop() {
	err := node.indexDB.Close()
	if err != nil {
		log.Errorf("Error closing the main DAG index database: %+v", err)
	}
	err = node.blockInfoDB.Close()
	if err != nil {
		log.Errorf("Error closing the block info database: %+v", err)
	}
}

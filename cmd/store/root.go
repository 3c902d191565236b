// Package store wires the radixstore demo commands into the CLI.
package store

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eneq/misc/lib/config"
	"github.com/eneq/misc/lib/logging"
	"github.com/eneq/misc/lib/radixstore"
)

// StoreCmd represents the store command group.
var StoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Exercise the radix store end to end",
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Build a store, insert, look up, delete and dump it",
	RunE:  runDemo,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Build a store, insert a few entries and print a tree dump",
	RunE:  runInspect,
}

func init() {
	config.BindStoreFlags(demoCmd)
	config.BindStoreFlags(inspectCmd)
	StoreCmd.AddCommand(demoCmd)
	StoreCmd.AddCommand(inspectCmd)
}

func runDemo(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadStoreConfig(cmd)
	if err != nil {
		return err
	}
	fmt.Println(cfg)

	logger := logging.New("store-demo")
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))

	s := radixstore.New(cfg.KeySize, cfg.BitsPerLevel, cfg.Lifespan, radixstore.WithLogger(logger))
	if s == nil {
		return fmt.Errorf("invalid store parameters")
	}
	defer s.Close()

	keys := [][]byte{
		paddedKey(cfg.KeySize, 1),
		paddedKey(cfg.KeySize, 2),
		paddedKey(cfg.KeySize, 3),
	}

	for i, k := range keys {
		added := s.Add(k, []byte(fmt.Sprintf("value-%d", i)), func(key []byte, value any) {
			fmt.Printf("reclaimed key=%x value=%v\n", key, value)
		})
		fmt.Printf("add key=%x -> %v\n", k, added)
	}

	s.Find(keys[0], func(key []byte, value any, _ any) {
		fmt.Printf("find key=%x -> %v\n", key, value)
	}, nil)

	fmt.Printf("delete key=%x -> %v\n", keys[1], s.Delete(keys[1]))
	fmt.Printf("readd key=%x -> %v\n", keys[1], s.Add(keys[1], []byte("value-readd"), nil))
	s.Prune()

	fmt.Printf("live leaves: %d\n", s.Len())

	avg, median := s.ValueSizeStats()
	fmt.Printf("value size avg=%d median=%d\n", avg, median)
	s.WritePrometheus(os.Stdout)

	fmt.Println(s.Dump())

	return nil
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadStoreConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.New("store-inspect")
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))

	s := radixstore.New(cfg.KeySize, cfg.BitsPerLevel, cfg.Lifespan, radixstore.WithLogger(logger))
	if s == nil {
		return fmt.Errorf("invalid store parameters")
	}
	defer s.Close()

	for i := byte(1); i <= 5; i++ {
		s.Add(paddedKey(cfg.KeySize, i), []byte(fmt.Sprintf("value-%d", i)), nil)
	}

	fmt.Println(s.Dump())

	avg, median := s.ValueSizeStats()
	fmt.Printf("value size avg=%d median=%d\n", avg, median)
	s.WritePrometheus(os.Stdout)

	return nil
}

func paddedKey(size int, last byte) []byte {
	k := make([]byte, size)
	k[size-1] = last
	return k
}

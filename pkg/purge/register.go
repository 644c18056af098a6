package purge

import "github.com/ctc-oss/foreman/pkg/message"

// Register installs decoders for all three purge message types into
// reg, binding store to every decoded message so callers never have to
// thread it through the bus themselves.
func Register(reg *message.Registry, store Store) {
	reg.Register(PurgeSourceFileType, func(payload []byte) (message.Message, error) {
		m, err := decodePurgeSourceFile(payload)
		if err != nil {
			return nil, err
		}
		m.Store = store
		return m, nil
	})

	reg.Register(PurgeRecipeType, func(payload []byte) (message.Message, error) {
		m, err := decodePurgeRecipe(payload)
		if err != nil {
			return nil, err
		}
		m.Store = store
		return m, nil
	})

	reg.Register(SpawnDeleteFilesJobType, func(payload []byte) (message.Message, error) {
		m, err := decodeSpawnDeleteFilesJob(payload)
		if err != nil {
			return nil, err
		}
		m.Store = store
		return m, nil
	})
}

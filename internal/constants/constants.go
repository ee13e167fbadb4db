package constants

const (
	AppName        = "cardlegends"
	WalletFile     = "wallet.json"
	ConfigFile     = "config.yaml"
	JournalDirName = "journal"

	SchemaV1      = 1
	FilePerm      = 0o600
	DirectoryPerm = 0o700

	// AAD bound to the encrypted wallet file.
	WalletAAD = "cardlegends:wallet:v1"

	// DefaultMintGasLimit matches the gas budget the game frontend used for mintCard.
	DefaultMintGasLimit = 10_000_000

	// MinGasLimit is the intrinsic cost of any transaction.
	MinGasLimit = 21_000
)

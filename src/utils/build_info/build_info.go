package build_info

// Set with -ldflags "-X github.com/wochenmarkt/ingestor/src/utils/build_info.Version=..."
var Version = "dev"

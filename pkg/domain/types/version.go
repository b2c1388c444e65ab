package types

// Version is the plugin version reported by --version and the JSON descriptor
const Version = "0.1"

// AppName is the name of the plugin as registered with the ChRIS store
const AppName = "covidnet_generate_dataset"

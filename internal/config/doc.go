// Package config loads server configuration for the sylph CLI.
//
// Configuration is read with viper from sylph.json, sylph.yaml or
// sylph.toml, then overridden by SYLPH_* environment variables (PORT is
// honoured too). Every key is optional.
//
// # Configuration File Structure
//
//	{
//	  "basePath": "server",
//	  "apiBase": "api",
//	  "port": 3000,
//	  "origins": ["http://localhost:5173"],
//	  "historyMode": true,
//	  "watch": true,
//	  "public": "server/public",
//	  "static": {
//	    "bucket": "my-assets",
//	    "region": "eu-west-1"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Port:", cfg.Port)
package config

// Package config loads the xcel server configuration.
//
// Settings come from three layers, later ones winning: built-in defaults,
// an optional xcel.json in the working directory, and environment
// variables. The result is validated once at startup and read-only
// afterwards.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "addr": ":8080",
//	    "shutdownTimeout": "15s"
//	  },
//	  "upload": {
//	    "serverless": false,
//	    "maxFileSizeMB": 25,
//	    "allowedExtensions": [".xlsx", ".xls"]
//	  },
//	  "storage": {
//	    "backend": "s3",
//	    "bucket": "xcel-uploads",
//	    "prefix": "admin/",
//	    "retention": "168h"
//	  },
//	  "database": {
//	    "url": "postgres://xcel@localhost/xcel"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "json"
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
//	gate := upload.NewGate(cfg.GateConfig(logger))
package config

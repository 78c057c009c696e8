// Command bazaar runs and administers the marketplace backend.
//
//	bazaar serve             # HTTP API (+ gRPC health when GRPC_PORT is set)
//	bazaar migrate           # apply pending migrations
//	bazaar migrate:rollback  # revert the last batch
//	bazaar migrate:status
//	bazaar seed              # sample listings and reviews
//	bazaar route:list
package main

// vftledger is the command-line tool and background process of the
// ledger.
//
// Usage:
//
//	vftledger -d /var/lib/vftledger init
//	vftledger -d /var/lib/vftledger --caller @treasury mint @alice 1000
//	vftledger -d /var/lib/vftledger --caller @alice transfer @bob 40
//	vftledger -d /var/lib/vftledger -c /etc/vftledger.yaml serve
package main

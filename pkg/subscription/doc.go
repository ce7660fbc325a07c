// Package subscription keeps logically continuous pod watches and log tails
// alive across the API server's periodic disconnects. Each subscription is a
// sequence of physical transports stitched together by a resume cursor: the
// last observed resourceVersion for watches, the last log line's timestamp
// for tails. Delivery across a reconnect boundary is at-least-once; the
// consumers here de-duplicate by cursor comparison.
package subscription

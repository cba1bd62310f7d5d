// Package cache provides short-lived caching for collaborator lookups.
//
// A Cache is either process-local (MemoryCache) or shared through Redis
// (RedisCache). Keys come from a Keyer, TTLs from a Policy, and Loader ties
// them together as a read-through cache where failed loads are never stored.
package cache

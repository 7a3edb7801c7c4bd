// Package directory lists the organization's bookable conference rooms via
// the Google Admin Directory API.
//
// Room listings change rarely, so a Cache in front of the API keeps one
// snapshot per Workspace domain with a long TTL. The Provider type combines
// the cache with a per-user client and implements booking.DirectoryProvider.
package directory

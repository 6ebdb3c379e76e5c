package tenant

// ReservedRoutes exposes the reserved set to the external test package.
var ReservedRoutes = reservedRouteList

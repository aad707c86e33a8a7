// Package api defines the messmate.v1 wire messages and procedure names.
//
// Messages are plain structs encoded as JSON by internal/rpc, so any connect client
// (or curl with Content-Type: application/json) can call the server.
package api

const (
	AuthServiceName      = "messmate.v1.AuthService"
	MessServiceName      = "messmate.v1.MessService"
	MonthServiceName     = "messmate.v1.MonthService"
	MealServiceName      = "messmate.v1.MealService"
	FinanceServiceName   = "messmate.v1.FinanceService"
	DashboardServiceName = "messmate.v1.DashboardService"
	ScheduleServiceName  = "messmate.v1.ScheduleService"
)

// Procedure paths, "/<service>/<method>".
const (
	AuthServiceRegisterProcedure       = "/messmate.v1.AuthService/Register"
	AuthServiceLoginProcedure          = "/messmate.v1.AuthService/Login"
	AuthServiceGetCurrentUserProcedure = "/messmate.v1.AuthService/GetCurrentUser"

	MessServiceCreateMessProcedure        = "/messmate.v1.MessService/CreateMess"
	MessServiceJoinMessProcedure          = "/messmate.v1.MessService/JoinMess"
	MessServiceApproveMemberProcedure     = "/messmate.v1.MessService/ApproveMember"
	MessServiceUpdatePermissionsProcedure = "/messmate.v1.MessService/UpdatePermissions"
	MessServiceRemoveMemberProcedure      = "/messmate.v1.MessService/RemoveMember"
	MessServiceTransferManagerProcedure   = "/messmate.v1.MessService/TransferManager"
	MessServiceListMembersProcedure       = "/messmate.v1.MessService/ListMembers"

	MonthServiceStartMonthProcedure     = "/messmate.v1.MonthService/StartMonth"
	MonthServiceEndMonthProcedure       = "/messmate.v1.MonthService/EndMonth"
	MonthServiceDeleteMonthProcedure    = "/messmate.v1.MonthService/DeleteMonth"
	MonthServiceListMonthsProcedure     = "/messmate.v1.MonthService/ListMonths"
	MonthServiceGetActiveMonthProcedure = "/messmate.v1.MonthService/GetActiveMonth"

	MealServiceUpsertMealProcedure = "/messmate.v1.MealService/UpsertMeal"
	MealServiceDeleteMealProcedure = "/messmate.v1.MealService/DeleteMeal"
	MealServiceListMealsProcedure  = "/messmate.v1.MealService/ListMeals"

	FinanceServiceAddDepositProcedure    = "/messmate.v1.FinanceService/AddDeposit"
	FinanceServiceDeleteDepositProcedure = "/messmate.v1.FinanceService/DeleteDeposit"
	FinanceServiceListDepositsProcedure  = "/messmate.v1.FinanceService/ListDeposits"
	FinanceServiceAddExpenseProcedure    = "/messmate.v1.FinanceService/AddExpense"
	FinanceServiceDeleteExpenseProcedure = "/messmate.v1.FinanceService/DeleteExpense"
	FinanceServiceListExpensesProcedure  = "/messmate.v1.FinanceService/ListExpenses"

	DashboardServiceGetDashboardProcedure  = "/messmate.v1.DashboardService/GetDashboard"
	DashboardServiceGetSettlementProcedure = "/messmate.v1.DashboardService/GetSettlement"

	ScheduleServiceCreateScheduleProcedure = "/messmate.v1.ScheduleService/CreateSchedule"
	ScheduleServiceGenerateRosterProcedure = "/messmate.v1.ScheduleService/GenerateRoster"
	ScheduleServiceListSchedulesProcedure  = "/messmate.v1.ScheduleService/ListSchedules"
	ScheduleServiceDeleteScheduleProcedure = "/messmate.v1.ScheduleService/DeleteSchedule"
)

// Empty is the response of calls that return nothing.
type Empty struct{}

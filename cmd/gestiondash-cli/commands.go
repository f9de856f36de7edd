package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"gestiondash/internal/catalog"
	"gestiondash/internal/database"
	"gestiondash/internal/kpi"
	"gestiondash/internal/snapshots"
)

// === KPIs ===

var kpisCmd = &cobra.Command{
	Use:   "kpis",
	Short: "Muestra KPIs, distribución y resumen para los filtros",
	RunE:  runKPIs,
}

// === SNAPSHOTS ===

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Gestionar snapshots",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "Listar los últimos snapshots",
	RunE:  runSnapshotList,
}

var snapshotGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Ver un snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotGet,
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Calcula KPIs con los filtros y los guarda como snapshot",
	RunE:  runSnapshotSave,
}

// === CONSULTAS ===

var gestionesCmd = &cobra.Command{
	Use:   "gestiones",
	Short: "Gestiones de un operador en un día",
	RunE:  runGestiones,
}

var noContestaCmd = &cobra.Command{
	Use:   "no-contesta [campaign_id]",
	Short: "Contactos de una campaña que no contestan",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoContesta,
}

var rendimientoCmd = &cobra.Command{
	Use:   "rendimiento",
	Short: "KPIs por campaña y agente",
	RunE:  runRendimiento,
}

var contactosCmd = &cobra.Command{
	Use:   "contactos",
	Short: "Buscar contactos por teléfono o CI",
	RunE:  runContactos,
}

var campaignsCmd = &cobra.Command{
	Use:   "campaigns [texto]",
	Short: "Buscar campañas",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCampaigns,
}

var agentsCmd = &cobra.Command{
	Use:   "agents [texto]",
	Short: "Buscar agentes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAgents,
}

func init() {
	addFilterFlags(kpisCmd)
	addFilterFlags(snapshotSaveCmd)
	addFilterFlags(rendimientoCmd)

	gestionesCmd.Flags().Int64("operator", 0, "ID del operador (requerido)")
	gestionesCmd.Flags().String("date", "", "día YYYYMMDD (requerido)")

	contactosCmd.Flags().String("telefono", "", "número de teléfono")
	contactosCmd.Flags().String("ci", "", "cédula")

	campaignsCmd.Flags().Int("limit", 0, "máximo de resultados")
	agentsCmd.Flags().Int("limit", 0, "máximo de resultados")

	snapshotCmd.AddCommand(snapshotListCmd, snapshotGetCmd, snapshotSaveCmd)
	rootCmd.AddCommand(kpisCmd, snapshotCmd, gestionesCmd, noContestaCmd, rendimientoCmd, contactosCmd, campaignsCmd, agentsCmd)
}

func filtersFrom(cmd *cobra.Command) url.Values {
	return filterQuery(getString(cmd, "start"), getString(cmd, "end"), getString(cmd, "campaign"), getString(cmd, "agent"))
}

func runKPIs(cmd *cobra.Command, _ []string) error {
	var rep kpi.Report
	if err := api().get(cmd.Context(), "/api/kpis", filtersFrom(cmd), &rep); err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), &rep)
	return nil
}

func printReport(out io.Writer, rep *kpi.Report) {
	fmt.Fprintf(out, "Campaña: %s   Agente: %s\n", deref(rep.Filters.CampaignLabel), deref(rep.Filters.AgentLabel))
	fmt.Fprintf(out, "Gestiones: %d   Efectivas: %d   Exitosas: %d\n", rep.Totals.Total, rep.Totals.Efectivas, rep.Totals.Exitosas)
	fmt.Fprintf(out, "Contactabilidad: %.2f%%   Penetración bruta: %.2f%%   Penetración neta: %.2f%%\n\n",
		rep.KPIs.Contactabilidad, rep.KPIs.PenetracionBruta, rep.KPIs.PenetracionNeta)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RESULTADO\tCANTIDAD")
	fmt.Fprintln(w, "---------\t--------")
	for _, d := range rep.Distribution {
		fmt.Fprintf(w, "%s\t%d\n", d.Resultado, d.Cantidad)
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CAMPAÑA\tAGENTE\tGESTIONES")
	fmt.Fprintln(w, "-------\t------\t---------")
	for _, r := range rep.TopResumen {
		fmt.Fprintf(w, "%s\t%s %s\t%d\n", r.Campana, r.AgenteNombre, r.AgenteApellido, r.Gestiones)
	}
	_ = w.Flush()
}

func runSnapshotList(cmd *cobra.Command, _ []string) error {
	var list []snapshots.Snapshot
	if err := api().get(cmd.Context(), "/api/snapshots", nil, &list); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tCREADO\tCTC\tPB\tPN")
	fmt.Fprintln(w, "--\t------\t---\t--\t--")
	for _, s := range list {
		var k kpi.Rates
		_ = json.Unmarshal(s.KPIs, &k)
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%.2f\n", s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			k.Contactabilidad, k.PenetracionBruta, k.PenetracionNeta)
	}
	return w.Flush()
}

func runSnapshotGet(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return eris.Errorf("id inválido: %s", args[0])
	}

	var snap snapshots.Snapshot
	if err := api().get(cmd.Context(), "/api/snapshots/"+strconv.FormatInt(id, 10), nil, &snap); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func runSnapshotSave(cmd *cobra.Command, _ []string) error {
	c := api()

	var rep kpi.Report
	if err := c.get(cmd.Context(), "/api/kpis", filtersFrom(cmd), &rep); err != nil {
		return err
	}

	body := map[string]any{
		"filters":      rep.Filters,
		"kpis":         rep.KPIs,
		"distribution": rep.Distribution,
	}
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.post(cmd.Context(), "/api/snapshots", body, &out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot #%d guardado\n", out.ID)
	return nil
}

func runGestiones(cmd *cobra.Command, _ []string) error {
	operator, _ := cmd.Flags().GetInt64("operator")
	date := getString(cmd, "date")
	if operator == 0 || date == "" {
		return eris.New("--operator y --date son requeridos")
	}

	q := url.Values{}
	q.Set("operator_id", strconv.FormatInt(operator, 10))
	q.Set("date", date)

	var rows []database.Gestion
	if err := api().get(cmd.Context(), "/api/consultas/gestiones", q, &rows); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tTIMESTAMP\tCAMPAÑA\tCI\tCONTACTO\tRESULTADO")
	fmt.Fprintln(w, "--\t---------\t-------\t--\t--------\t---------")
	for _, g := range rows {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s %s\t%s\n", g.ID, g.Timestamp, g.CampaignID, g.ContactoCI,
			g.ContactoNombre, g.ContactoApellido, deref(g.Resultado))
	}
	return w.Flush()
}

func runNoContesta(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	q.Set("campaign_id", args[0])

	var rows []database.Contacto
	if err := api().get(cmd.Context(), "/api/consultas/no_contesta", q, &rows); err != nil {
		return err
	}
	return printContactos(cmd.OutOrStdout(), rows)
}

func runRendimiento(cmd *cobra.Command, _ []string) error {
	var rows []catalog.RendimientoRow
	if err := api().get(cmd.Context(), "/api/consultas/rendimiento", filtersFrom(cmd), &rows); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CAMPAÑA\tAGENTE\tGESTIONES\tCTC\tPB\tPN")
	fmt.Fprintln(w, "-------\t------\t---------\t---\t--\t--")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s %s\t%d\t%.2f\t%.2f\t%.2f\n", r.Campana, r.AgenteNombre, r.AgenteApellido,
			r.Total, r.Contactabilidad, r.PenetracionBruta, r.PenetracionNeta)
	}
	return w.Flush()
}

func runContactos(cmd *cobra.Command, _ []string) error {
	telefono, ci := getString(cmd, "telefono"), getString(cmd, "ci")
	if telefono == "" && ci == "" {
		return eris.New("--telefono o --ci es requerido")
	}

	q := url.Values{}
	if telefono != "" {
		q.Set("telefono", telefono)
	}
	if ci != "" {
		q.Set("ci", ci)
	}

	var rows []database.Contacto
	if err := api().get(cmd.Context(), "/api/consultas/contactos", q, &rows); err != nil {
		return err
	}
	return printContactos(cmd.OutOrStdout(), rows)
}

func printContactos(out io.Writer, rows []database.Contacto) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tCI\tAPELLIDO\tNOMBRE\tTELÉFONOS")
	fmt.Fprintln(w, "--\t--\t--------\t------\t---------")
	for _, c := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.CI, c.Apellido, c.Nombre,
			joinPhones(c.Telefono1, c.Telefono2, c.Celular1, c.Celular2))
	}
	return w.Flush()
}

func runCampaigns(cmd *cobra.Command, args []string) error {
	var rows []database.Campaign
	if err := api().get(cmd.Context(), "/api/campaigns", autocompleteQuery(cmd, args), &rows); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tCÓDIGO\tNOMBRE")
	fmt.Fprintln(w, "--\t------\t------")
	for _, c := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Codigo, c.Nombre)
	}
	return w.Flush()
}

func runAgents(cmd *cobra.Command, args []string) error {
	var rows []database.Agent
	if err := api().get(cmd.Context(), "/api/agents", autocompleteQuery(cmd, args), &rows); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tUSUARIO\tNOMBRE")
	fmt.Fprintln(w, "--\t-------\t------")
	for _, a := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s %s\n", a.ID, a.Username, a.Nombre, a.Apellido)
	}
	return w.Flush()
}

func autocompleteQuery(cmd *cobra.Command, args []string) url.Values {
	q := url.Values{}
	if len(args) == 1 && args[0] != "" {
		q.Set("q", args[0])
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func joinPhones(phones ...*string) string {
	out := ""
	for _, p := range phones {
		if p == nil || *p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += *p
	}
	return out
}

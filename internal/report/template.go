package report

import "html/template"

var reportTemplate = template.Must(template.New("options-report").Parse(reportHTML))

const reportHTML = `<html>
<head>
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 0;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            max-width: 900px;
            margin: 0 auto;
            background-color: #ffffff;
            border-radius: 8px;
            overflow: hidden;
            box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);
        }
        .header {
            background-color: #0066cc;
            color: #ffffff;
            padding: 20px 30px;
        }
        .header h1 {
            margin: 0;
            font-size: 24px;
        }
        .header p {
            margin: 5px 0 0 0;
            font-size: 13px;
            opacity: 0.85;
        }
        .content {
            padding: 20px 30px 30px 30px;
        }
        .summary {
            background-color: #f0f7ff;
            border-left: 4px solid #0066cc;
            padding: 12px 16px;
            margin-bottom: 20px;
        }
        .summary h2 {
            margin: 0 0 6px 0;
            font-size: 16px;
            color: #0066cc;
        }
        .summary p {
            margin: 0;
            font-size: 14px;
        }
        .load-section {
            margin-bottom: 24px;
            border: 1px solid #e0e0e0;
            border-radius: 6px;
            overflow: hidden;
        }
        .load-header {
            background-color: #0066cc;
            color: #ffffff;
            padding: 10px 14px;
            font-size: 15px;
            font-weight: bold;
        }
        .load-lane {
            background-color: #eef4fb;
            padding: 8px 14px;
            font-size: 13px;
            color: #333333;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            font-size: 13px;
        }
        th {
            background-color: #fafafa;
            text-align: left;
            padding: 8px 14px;
            border-bottom: 2px solid #e0e0e0;
            color: #555555;
        }
        td {
            padding: 8px 14px;
            border-bottom: 1px solid #eeeeee;
        }
        tr:last-child td {
            border-bottom: none;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Options Report</h1>
            <p>Generated at {{.GeneratedAt}}</p>
        </div>
        <div class="content">
            <div class="summary">
                <h2>Summary</h2>
                <p><strong>Total Options:</strong> {{.Count}}</p>
            </div>
{{- if .Loads}}
{{- range .Loads}}
            <div class="load-section">
                <div class="load-header">Load Number: {{.CustomLoadID}}</div>
                <div class="load-lane">Lane: {{.Lane}}</div>
                <table>
                    <thead>
                        <tr>
                            <th>Carrier MC</th>
                            <th>Carrier DOT</th>
                            <th>Offer Amount</th>
                            <th>Phone Number</th>
                            <th>Option Logged Time</th>
                        </tr>
                    </thead>
                    <tbody>
{{- range .Rows}}
                        <tr>
                            <td>{{.CarrierMC}}</td>
                            <td>{{.CarrierDOT}}</td>
                            <td>{{.Rate}}</td>
                            <td>{{.Phone}}</td>
                            <td>{{.LoggedTime}}</td>
                        </tr>
{{- end}}
                    </tbody>
                </table>
            </div>
{{- end}}
{{- else}}
            <p><strong>No options found matching the criteria.</strong></p>
{{- end}}
        </div>
    </div>
</body>
</html>
`
